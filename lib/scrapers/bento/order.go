package bento

import (
	"context"
	"fmt"
	"log/slog"
	"strconv"

	"go.opentelemetry.io/otel/codes"
)

type OrderRequest struct {
	// YYYY-MM-DD or YYYY/MM/DD
	Date string
	// menu slot alias, display name or index, see ResolveSelection
	Selection string
	// 0 cancels the existing order for the slot
	Quantity int
}

type OrderResult struct {
	Success   bool
	Message   string
	Date      string
	Selection string
	Quantity  int
}

// the dt value keeps its literal slashes, the server rejects the
// %2F-encoded form, so the query string is assembled by hand
func (c *Client) detailPageUrl(orderDate string) string {
	return fmt.Sprintf("%s/Order/CreateDetails?dt=%s&kbn=1&err=false", c.BaseUrl, orderDate)
}

// SubmitOrder places, changes or with quantity 0 cancels the order for
// one day. An authentication failure comes back inside the result
// rather than as an error so callers can show the message as-is.
func (c *Client) SubmitOrder(ctx context.Context, req OrderRequest) (OrderResult, error) {
	ctx, span := tracer.Start(ctx, "client:SubmitOrder")
	defer span.End()

	sel, err := ResolveSelection(req.Selection)
	if err != nil {
		span.SetStatus(codes.Error, err.Error())
		return OrderResult{}, err
	}
	orderDate, err := NormalizeDate(req.Date)
	if err != nil {
		span.SetStatus(codes.Error, err.Error())
		return OrderResult{}, err
	}
	quantities := EncodeQuantities(sel, req.Quantity)

	ok, err := c.EnsureAuthenticated(ctx, false)
	if err != nil {
		return OrderResult{}, err
	}
	if !ok {
		span.SetStatus(codes.Error, LoginFailed.Error())
		return OrderResult{
			Success:   false,
			Message:   "ログインに失敗しました。認証情報を確認してください。",
			Date:      req.Date,
			Selection: req.Selection,
			Quantity:  req.Quantity,
		}, nil
	}

	detailUrl := c.detailPageUrl(orderDate)
	slog.InfoContext(ctx, "fetching order page", "date", orderDate)
	res, err := c.Http.R().
		SetContext(ctx).
		SetHeader("Referer", c.BaseUrl.String()+"/").
		Get(detailUrl)
	if err != nil {
		span.SetStatus(codes.Error, "failed to fetch order page")
		return OrderResult{}, err
	}
	if res.IsError() {
		span.SetStatus(codes.Error, "failed to fetch order page")
		return OrderResult{}, fmt.Errorf("order page returned %s", res.Status())
	}
	token, err := ExtractToken(res.Body())
	if err != nil {
		span.SetStatus(codes.Error, "failed to extract order token")
		return OrderResult{}, err
	}

	slog.InfoContext(ctx, "submitting order",
		"date", orderDate,
		"selection", sel.String(),
		"quantity", req.Quantity,
	)
	res, err = c.Http.R().
		SetContext(ctx).
		SetFormData(map[string]string{
			"__RequestVerificationToken": token,
			"[0].数量":                     strconv.Itoa(quantities[0]),
			"[1].数量":                     strconv.Itoa(quantities[1]),
			"[2].数量":                     strconv.Itoa(quantities[2]),
		}).
		SetHeader("Referer", detailUrl).
		SetHeader("Origin", c.BaseUrl.String()).
		Post(detailUrl)
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "failed to submit order")
		return OrderResult{}, err
	}
	if res.IsError() {
		span.SetStatus(codes.Error, "failed to submit order")
		return OrderResult{}, fmt.Errorf("order submission returned %s", res.Status())
	}

	message := fmt.Sprintf("%s の %s を %d 個注文しました。", req.Date, sel, req.Quantity)
	if req.Quantity == 0 {
		message = fmt.Sprintf("%s の %s の注文を取り消しました。", req.Date, sel)
	}
	slog.InfoContext(ctx, "order submitted", "date", orderDate, "selection", sel.String())
	return OrderResult{
		Success:   true,
		Message:   message,
		Date:      req.Date,
		Selection: sel.String(),
		Quantity:  req.Quantity,
	}, nil
}

// CancelOrder zeroes out the slot, the site treats a zero quantity as
// a cancellation.
func (c *Client) CancelOrder(ctx context.Context, date, selection string) (OrderResult, error) {
	return c.SubmitOrder(ctx, OrderRequest{Date: date, Selection: selection})
}
