package bento

import (
	"bytes"
	"fmt"

	"github.com/PuerkitoBio/goquery"
)

var TokenNotFound = fmt.Errorf("could not find the request verification token")

// ExtractToken pulls the asp.net anti-forgery token out of a rendered
// page. Every form on the site embeds one as a hidden input and
// rejects submissions without it.
func ExtractToken(page []byte) (string, error) {
	doc, err := goquery.NewDocumentFromReader(bytes.NewBuffer(page))
	if err != nil {
		return "", err
	}
	token := doc.Find("input[name='__RequestVerificationToken']").AttrOr("value", "")
	if token == "" {
		return "", TokenNotFound
	}
	return token, nil
}
