package migrations

import (
	"context"
	"encoding/json"

	"github.com/uptrace/bun"

	"proctor-quiz-service/internal/questions"
)

func init() {
	Migrations.MustRegister(
		func(ctx context.Context, db *bun.DB) error {
			bank := questions.WebBasics()
			data, err := json.Marshal(bank.Questions)
			if err != nil {
				return err
			}
			_, err = db.ExecContext(ctx,
				`INSERT INTO question_banks (id, title, data) VALUES (?, ?, ?::jsonb) ON CONFLICT (id) DO NOTHING`,
				bank.ID, bank.Title, string(data))
			return err
		},
		func(ctx context.Context, db *bun.DB) error {
			_, err := db.ExecContext(ctx, `DELETE FROM question_banks WHERE id = ?`, questions.DefaultBankID)
			return err
		},
	)
}
