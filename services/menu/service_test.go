package menu

import (
	"context"
	"testing"
	"time"

	"bentobot/lib/testutil"
	"bentobot/services/menu/db"

	"github.com/google/go-cmp/cmp"
	"github.com/stretchr/testify/require"

	_ "modernc.org/sqlite"
)

func TestService(t *testing.T) {
	setup, cleanup := testutil.SetupService(t, testutil.ServiceParams{
		Name:     "services/menu",
		DbSchema: db.Schema,
	})
	defer cleanup()
	service := NewService(setup.DB)

	ctx, cancel := context.WithTimeout(context.Background(), time.Second*5)
	defer cancel()

	{
		day, found, err := service.Day(ctx, "2026-02-10")
		require.NoError(t, err)
		require.False(t, found)
		require.Zero(t, day)
	}
	{
		err := service.UpsertDays(ctx, []MenuDay{
			{Date: "2026-02-10", AiLunch: "チキンカツ, サラダ", WafuLunch: "さばのみそ煮, おひたし", SourcePDF: "february.pdf"},
			{Date: "2026-02-12", AiLunch: "ハンバーグ, ポテト", WafuLunch: "肉じゃが, きんぴら", SourcePDF: "february.pdf"},
			{Date: "2026-02-13", AiLunch: "オムライス", WafuLunch: "焼き魚定食", SourcePDF: "february.pdf"},
		})
		require.NoError(t, err)

		day, found, err := service.Day(ctx, "2026-02-12")
		require.NoError(t, err)
		require.True(t, found)
		require.Empty(t, cmp.Diff(MenuDay{
			Date:      "2026-02-12",
			AiLunch:   "ハンバーグ, ポテト",
			WafuLunch: "肉じゃが, きんぴら",
			SourcePDF: "february.pdf",
		}, day))
	}
	{
		// a later upsert of the same date wins
		err := service.UpsertDays(ctx, []MenuDay{
			{Date: "2026-02-12", AiLunch: "カレーライス", WafuLunch: "天ぷらそば", SourcePDF: "february_v2.pdf"},
		})
		require.NoError(t, err)

		day, found, err := service.Day(ctx, "2026-02-12")
		require.NoError(t, err)
		require.True(t, found)
		require.Equal(t, "カレーライス", day.AiLunch)
		require.Equal(t, "february_v2.pdf", day.SourcePDF)
	}
	{
		days, err := service.Range(ctx, "", "")
		require.NoError(t, err)
		require.Len(t, days, 3)
		require.Equal(t, "2026-02-10", days[0].Date)
		require.Equal(t, "2026-02-13", days[2].Date)

		days, err = service.Range(ctx, "2026-02-12", "")
		require.NoError(t, err)
		require.Len(t, days, 2)

		days, err = service.Range(ctx, "", "2026-02-10")
		require.NoError(t, err)
		require.Len(t, days, 1)

		days, err = service.Range(ctx, "2026-02-11", "2026-02-12")
		require.NoError(t, err)
		require.Len(t, days, 1)
		require.Equal(t, "2026-02-12", days[0].Date)
	}
}

func TestSearch(t *testing.T) {
	setup, cleanup := testutil.SetupService(t, testutil.ServiceParams{
		Name:     "services/menu",
		DbSchema: db.Schema,
	})
	defer cleanup()
	service := NewService(setup.DB)

	ctx, cancel := context.WithTimeout(context.Background(), time.Second*5)
	defer cancel()

	err := service.UpsertDays(ctx, []MenuDay{
		{Date: "2026-02-10", AiLunch: "カレーライス", WafuLunch: "みそしる"},
		{Date: "2026-02-12", AiLunch: "カレーライス大盛り, サラダ", WafuLunch: "みそしる, ごはん"},
		{Date: "2026-02-13", AiLunch: "Chicken Nanban", WafuLunch: "やきざかな"},
	})
	require.NoError(t, err)

	{
		matches, err := service.Search(ctx, "カレー", 0)
		require.NoError(t, err)
		require.Len(t, matches, 2)
	}
	{
		// every keyword has to appear somewhere in the day's dishes
		matches, err := service.Search(ctx, "カレー サラダ", 0)
		require.NoError(t, err)
		require.Len(t, matches, 1)
		require.Equal(t, "2026-02-12", matches[0].Date)
	}
	{
		// latin keywords match case insensitively
		matches, err := service.Search(ctx, "chicken", 0)
		require.NoError(t, err)
		require.Len(t, matches, 1)
		require.Equal(t, "2026-02-13", matches[0].Date)
	}
	{
		// an exact query ranks its day above a longer partial match
		matches, err := service.Search(ctx, "カレーライス みそしる", 0)
		require.NoError(t, err)
		require.Len(t, matches, 2)
		require.Equal(t, "2026-02-10", matches[0].Date)
		require.Greater(t, matches[0].Similarity, matches[1].Similarity)
	}
	{
		matches, err := service.Search(ctx, "カレー", 1)
		require.NoError(t, err)
		require.Len(t, matches, 1)
	}
	{
		matches, err := service.Search(ctx, "ぎょうざ", 0)
		require.NoError(t, err)
		require.Empty(t, matches)
	}
	{
		matches, err := service.Search(ctx, "   ", 0)
		require.NoError(t, err)
		require.Empty(t, matches)
	}
}
