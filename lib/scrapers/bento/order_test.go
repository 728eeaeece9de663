package bento

import (
	"context"
	"path/filepath"
	"testing"
	"time"

	"bentobot/lib/telemetry"

	"github.com/stretchr/testify/require"
)

func TestSubmitOrder(t *testing.T) {
	cleanup := telemetry.SetupForTesting(t, "test:scrapers/bento")
	defer cleanup()

	site := newStubSite(t)
	client := newTestClient(t, site, filepath.Join(t.TempDir(), "session.json"))

	ctx, cancel := context.WithTimeout(context.Background(), time.Second*30)
	defer cancel()

	result, err := client.SubmitOrder(ctx, OrderRequest{
		Date:      "2026-02-10",
		Selection: "あいランチ",
		Quantity:  2,
	})
	require.NoError(t, err)
	require.True(t, result.Success)
	require.Equal(t, "2026-02-10 の あいランチ を 2 個注文しました。", result.Message)
	require.Equal(t, "あいランチ", result.Selection)
	require.Equal(t, 2, result.Quantity)

	require.Equal(t, [3]int{0, 2, 0}, site.currentQuantities())

	// the dt slashes must reach the server unescaped
	require.Equal(t, "dt=2026/02/10&kbn=1&err=false", site.orderQuery())

	form := site.orderForm()
	require.Equal(t, stubOrderToken, form.Get("__RequestVerificationToken"))
	require.Equal(t, "0", form.Get("[0].数量"))
	require.Equal(t, "2", form.Get("[1].数量"))
	require.Equal(t, "0", form.Get("[2].数量"))
}

func TestSubmitOrderReplacesQuantity(t *testing.T) {
	cleanup := telemetry.SetupForTesting(t, "test:scrapers/bento")
	defer cleanup()

	site := newStubSite(t)
	client := newTestClient(t, site, filepath.Join(t.TempDir(), "session.json"))

	ctx, cancel := context.WithTimeout(context.Background(), time.Second*30)
	defer cancel()

	_, err := client.SubmitOrder(ctx, OrderRequest{Date: "2026-02-10", Selection: "wafu", Quantity: 1})
	require.NoError(t, err)
	result, err := client.SubmitOrder(ctx, OrderRequest{Date: "2026-02-10", Selection: "wafu", Quantity: 3})
	require.NoError(t, err)

	require.True(t, result.Success)
	require.Equal(t, [3]int{3, 0, 0}, site.currentQuantities())
}

func TestCancelOrderIdempotent(t *testing.T) {
	cleanup := telemetry.SetupForTesting(t, "test:scrapers/bento")
	defer cleanup()

	site := newStubSite(t)
	client := newTestClient(t, site, filepath.Join(t.TempDir(), "session.json"))

	ctx, cancel := context.WithTimeout(context.Background(), time.Second*60)
	defer cancel()

	// cancelling with no prior order behaves like any other
	// cancellation, twice in a row included
	for i := 0; i < 2; i++ {
		result, err := client.CancelOrder(ctx, "2026-02-12", "和風")
		require.NoError(t, err)
		require.True(t, result.Success)
		require.Equal(t, "2026-02-12 の 和風ランチ の注文を取り消しました。", result.Message)
		require.Equal(t, 0, result.Quantity)
	}
	require.Equal(t, [3]int{0, 0, 0}, site.currentQuantities())
	require.Equal(t, 2, site.orderCount())
}

func TestSubmitOrderAuthFailure(t *testing.T) {
	cleanup := telemetry.SetupForTesting(t, "test:scrapers/bento")
	defer cleanup()

	site := newStubSite(t)
	client, err := NewClient(context.Background(), ClientOptions{
		BaseUrl:     site.server.URL,
		SessionFile: filepath.Join(t.TempDir(), "session.json"),
		Credentials: Credentials{
			CompanyCode: DefaultCompanyCode,
			UserCode:    stubUserCode,
			Password:    "wrong",
		},
	})
	require.NoError(t, err)

	result, err := client.SubmitOrder(context.Background(), OrderRequest{
		Date:      "2026-02-10",
		Selection: "ai",
		Quantity:  1,
	})
	require.NoError(t, err)
	require.False(t, result.Success)
	require.Equal(t, "ログインに失敗しました。認証情報を確認してください。", result.Message)
	require.Equal(t, "ai", result.Selection)
	require.Equal(t, 0, site.orderCount())
}

func TestSubmitOrderValidation(t *testing.T) {
	cleanup := telemetry.SetupForTesting(t, "test:scrapers/bento")
	defer cleanup()

	site := newStubSite(t)
	client := newTestClient(t, site, filepath.Join(t.TempDir(), "session.json"))

	_, err := client.SubmitOrder(context.Background(), OrderRequest{
		Date:      "2026-02-10",
		Selection: "カレー",
		Quantity:  1,
	})
	require.ErrorIs(t, err, InvalidSelection)

	_, err = client.SubmitOrder(context.Background(), OrderRequest{
		Date:      "tomorrow",
		Selection: "ai",
		Quantity:  1,
	})
	require.ErrorIs(t, err, InvalidDate)

	// validation failures must never touch the site
	require.Equal(t, 0, site.loginCount())
	require.Equal(t, 0, site.orderCount())
}
