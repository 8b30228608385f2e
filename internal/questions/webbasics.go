// Package questions holds the built-in question banks.
package questions

import "proctor-quiz-service/internal/domain"

// DefaultBankID is the bank served when no other bank is configured.
const DefaultBankID = "web-basics"

// WebBasics returns a fresh copy of the built-in HTML/CSS/JavaScript bank.
func WebBasics() domain.Bank {
	return domain.Bank{
		ID:    DefaultBankID,
		Title: "Web Development Basics",
		Questions: []domain.Question{
			{
				ID:            "1",
				QuestionText:  "What is the correct syntax for referring to an external script called \"app.js\"?",
				Category:      "JavaScript",
				OptionA:       "<script src=\"app.js\"> - This is the standard way to include external JavaScript files",
				OptionB:       "<script name=\"app.js\"> - The name attribute is not used for linking scripts",
				OptionC:       "<script href=\"app.js\"> - The href attribute is used for links, not scripts",
				OptionD:       "<script file=\"app.js\"> - The file attribute does not exist in HTML",
				CorrectAnswer: domain.OptionA,
			},
			{
				ID:            "2",
				QuestionText:  "Which HTML tag is used to define an internal style sheet?",
				Category:      "HTML",
				OptionA:       "<css> - This is not a valid HTML tag",
				OptionB:       "<script> - This tag is used for JavaScript, not CSS",
				OptionC:       "<style> - Correct! This tag contains CSS rules for the document",
				OptionD:       "<link> - This is used for external stylesheets, not internal ones",
				CorrectAnswer: domain.OptionC,
			},
			{
				ID:            "3",
				QuestionText:  "How do you write \"Hello World\" in an alert box in JavaScript?",
				Category:      "JavaScript",
				OptionA:       "alertBox(\"Hello World\") - This is not a valid JavaScript function",
				OptionB:       "msg(\"Hello World\") - This function does not exist in JavaScript",
				OptionC:       "alert(\"Hello World\") - Correct! This displays a browser alert dialog",
				OptionD:       "msgBox(\"Hello World\") - This is not a standard JavaScript function",
				CorrectAnswer: domain.OptionC,
			},
			{
				ID:            "4",
				QuestionText:  "Which CSS property is used to change the text color of an element?",
				Category:      "CSS",
				OptionA:       "text-color - This property does not exist in CSS",
				OptionB:       "color - Correct! This property sets the color of text content",
				OptionC:       "font-color - This is not a valid CSS property",
				OptionD:       "text-style - This property does not control color",
				CorrectAnswer: domain.OptionB,
			},
			{
				ID:            "5",
				QuestionText:  "What does HTML stand for?",
				Category:      "HTML",
				OptionA:       "Hyper Text Markup Language - Correct! This is the standard markup language for web pages",
				OptionB:       "Home Tool Markup Language - This is not the correct meaning",
				OptionC:       "Hyperlinks and Text Markup Language - This is not accurate",
				OptionD:       "Hyperlinking Text Management Language - This is incorrect",
				CorrectAnswer: domain.OptionA,
			},
			{
				ID:            "6",
				QuestionText:  "How do you create a function in JavaScript?",
				Category:      "JavaScript",
				OptionA:       "function = myFunction() - This is incorrect syntax",
				OptionB:       "function myFunction() - Correct! This is the standard function declaration",
				OptionC:       "function:myFunction() - This syntax is invalid",
				OptionD:       "create myFunction() - The create keyword does not exist in JavaScript",
				CorrectAnswer: domain.OptionB,
			},
			{
				ID:            "7",
				QuestionText:  "Which property is used to change the background color in CSS?",
				Category:      "CSS",
				OptionA:       "bgcolor - This is an old HTML attribute, not a CSS property",
				OptionB:       "color - This property changes text color, not background",
				OptionC:       "background-color - Correct! This sets the background color of an element",
				OptionD:       "back-color - This property does not exist in CSS",
				CorrectAnswer: domain.OptionC,
			},
			{
				ID:            "8",
				QuestionText:  "What is the correct HTML element for inserting a line break?",
				Category:      "HTML",
				OptionA:       "<break> - This tag does not exist in HTML",
				OptionB:       "<lb> - This is not a valid HTML element",
				OptionC:       "<br> - Correct! This creates a single line break",
				OptionD:       "<linebreak> - This tag is not part of the HTML specification",
				CorrectAnswer: domain.OptionC,
			},
			{
				ID:            "9",
				QuestionText:  "How do you declare a JavaScript variable?",
				Category:      "JavaScript",
				OptionA:       "var myVariable - Correct! You can also use let or const in modern JavaScript",
				OptionB:       "variable myVariable - This is not valid JavaScript syntax",
				OptionC:       "v myVariable - This syntax does not exist in JavaScript",
				OptionD:       "declare myVariable - The declare keyword is for TypeScript, not standard JavaScript",
				CorrectAnswer: domain.OptionA,
			},
			{
				ID:            "10",
				QuestionText:  "Which CSS property controls the text size?",
				Category:      "CSS",
				OptionA:       "text-size - This property does not exist in CSS",
				OptionB:       "font-style - This controls italic/normal text, not size",
				OptionC:       "text-style - This is not a valid CSS property",
				OptionD:       "font-size - Correct! This property sets the size of text",
				CorrectAnswer: domain.OptionD,
			},
		},
	}
}

// Catalog returns the built-in banks keyed by ID.
func Catalog() map[string]domain.Bank {
	return map[string]domain.Bank{
		DefaultBankID: WebBasics(),
	}
}
