package bento

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func TestExtractToken(t *testing.T) {
	nameFirst := []byte(`<html><body><form>
		<input name="__RequestVerificationToken" type="hidden" value="tok-abc123" />
	</form></body></html>`)
	token, err := ExtractToken(nameFirst)
	require.NoError(t, err)
	require.Equal(t, "tok-abc123", token)

	valueFirst := []byte(`<html><body><form>
		<input value="tok-xyz789" type="hidden" name="__RequestVerificationToken" />
	</form></body></html>`)
	token, err = ExtractToken(valueFirst)
	require.NoError(t, err)
	require.Equal(t, "tok-xyz789", token)
}

func TestExtractTokenMissing(t *testing.T) {
	page := []byte(`<html><body><form>
		<input name="UserCD" value="" />
	</form></body></html>`)
	_, err := ExtractToken(page)
	require.ErrorIs(t, err, TokenNotFound)
}
