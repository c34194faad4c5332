package auth

import (
	"fmt"
	"strconv"
	"strings"

	sdkerrors "github.com/sendlix/sendlix-go/pkg/errors"
)

// APIKey is the long-lived credential exchanged for bearer tokens.
type APIKey struct {
	Secret string
	KeyID  int64
}

// ParseAPIKey splits "secret.keyId". Anything other than two non-empty
// segments with an integer key id is rejected with ErrInvalidFormat.
func ParseAPIKey(s string) (APIKey, error) {
	parts := strings.Split(s, ".")
	if len(parts) != 2 || parts[0] == "" || parts[1] == "" {
		return APIKey{}, sdkerrors.ErrInvalidFormat
	}

	keyID, err := strconv.ParseInt(parts[1], 10, 64)
	if err != nil {
		return APIKey{}, fmt.Errorf("%w: key id %q is not an integer", sdkerrors.ErrInvalidFormat, parts[1])
	}

	return APIKey{Secret: parts[0], KeyID: keyID}, nil
}

// String masks the secret so keys can be logged.
func (k APIKey) String() string {
	return fmt.Sprintf("***.%d", k.KeyID)
}
