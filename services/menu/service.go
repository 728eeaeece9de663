// Package menu stores lunch menus extracted from the pdfs published
// on the sumiyoshi-bento site and keeps them in sync.
package menu

import (
	"context"
	"database/sql"
	"slices"
	"strings"

	"bentobot/lib/textutil"
	"bentobot/lib/timezone"

	"github.com/antzucaro/matchr"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
)

var tracer = otel.Tracer("services/menu")

// MenuDay is one weekday's menu. The lunch fields hold the dishes as
// a single comma-joined string, the way they come out of the pdf.
type MenuDay struct {
	Date      string `json:"date"`
	AiLunch   string `json:"ai_lunch"`
	WafuLunch string `json:"wafu_lunch"`
	SourcePDF string `json:"source_pdf,omitempty"`
}

type Service struct {
	db *sql.DB
}

func NewService(database *sql.DB) Service {
	return Service{db: database}
}

func (s Service) UpsertDays(ctx context.Context, days []MenuDay) error {
	ctx, span := tracer.Start(ctx, "UpsertDays")
	defer span.End()

	span.SetAttributes(attribute.Int("days", len(days)))

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
		return err
	}
	defer tx.Rollback()

	now := timezone.Now().Unix()
	for _, day := range days {
		_, err := tx.ExecContext(
			ctx,
			`INSERT INTO menu_days (date, ai_lunch, wafu_lunch, source_pdf, updated_at)
			VALUES (?, ?, ?, ?, ?)
			ON CONFLICT (date) DO UPDATE SET
				ai_lunch = excluded.ai_lunch,
				wafu_lunch = excluded.wafu_lunch,
				source_pdf = excluded.source_pdf,
				updated_at = excluded.updated_at`,
			day.Date, day.AiLunch, day.WafuLunch, day.SourcePDF, now,
		)
		if err != nil {
			span.RecordError(err)
			span.SetStatus(codes.Error, err.Error())
			return err
		}
	}

	err = tx.Commit()
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
		return err
	}
	return nil
}

func (s Service) Day(ctx context.Context, date string) (MenuDay, bool, error) {
	ctx, span := tracer.Start(ctx, "Day")
	defer span.End()

	span.SetAttributes(attribute.String("date", date))

	row := s.db.QueryRowContext(
		ctx,
		`SELECT date, ai_lunch, wafu_lunch, source_pdf FROM menu_days WHERE date = ?`,
		date,
	)

	var day MenuDay
	err := row.Scan(&day.Date, &day.AiLunch, &day.WafuLunch, &day.SourcePDF)
	if err == sql.ErrNoRows {
		return MenuDay{}, false, nil
	}
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
		return MenuDay{}, false, err
	}
	return day, true, nil
}

// Range returns the stored days between from and to inclusive, in
// date order. An empty bound is unbounded on that side.
func (s Service) Range(ctx context.Context, from, to string) ([]MenuDay, error) {
	ctx, span := tracer.Start(ctx, "Range")
	defer span.End()

	query := `SELECT date, ai_lunch, wafu_lunch, source_pdf FROM menu_days`
	var conditions []string
	var args []any
	if from != "" {
		conditions = append(conditions, "date >= ?")
		args = append(args, from)
	}
	if to != "" {
		conditions = append(conditions, "date <= ?")
		args = append(args, to)
	}
	if len(conditions) > 0 {
		query += " WHERE " + strings.Join(conditions, " AND ")
	}
	query += " ORDER BY date"

	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
		return nil, err
	}
	defer rows.Close()

	var days []MenuDay
	for rows.Next() {
		var day MenuDay
		err := rows.Scan(&day.Date, &day.AiLunch, &day.WafuLunch, &day.SourcePDF)
		if err != nil {
			span.RecordError(err)
			span.SetStatus(codes.Error, err.Error())
			return nil, err
		}
		days = append(days, day)
	}
	err = rows.Err()
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
		return nil, err
	}
	return days, nil
}

type MenuMatch struct {
	MenuDay
	Similarity float64
}

// Search filters days down to the ones whose dishes contain every
// whitespace-separated keyword, case-insensitively, then ranks them
// by similarity to the whole query. limit <= 0 returns everything.
func (s Service) Search(ctx context.Context, query string, limit int) ([]MenuMatch, error) {
	ctx, span := tracer.Start(ctx, "Search")
	defer span.End()

	span.SetAttributes(attribute.String("query", query))

	keywords := strings.Fields(query)
	if len(keywords) == 0 {
		return nil, nil
	}

	days, err := s.Range(ctx, "", "")
	if err != nil {
		return nil, err
	}

	var matches []MenuMatch
	for _, day := range days {
		combined := day.AiLunch + " " + day.WafuLunch
		if !textutil.ContainsAll(combined, keywords) {
			continue
		}
		matches = append(matches, MenuMatch{
			MenuDay: day,
			Similarity: matchr.JaroWinkler(
				textutil.NormalizeText(query), textutil.NormalizeText(combined), false),
		})
	}

	// ties keep date order since the input is already date sorted
	slices.SortStableFunc(matches, func(a, b MenuMatch) int {
		if a.Similarity > b.Similarity {
			return -1
		}
		if a.Similarity < b.Similarity {
			return 1
		}
		return 0
	})

	if limit > 0 && len(matches) > limit {
		matches = matches[:limit]
	}
	return matches, nil
}
