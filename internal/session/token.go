package session

import (
	"encoding/json"
	"fmt"
	"strings"
	"time"

	"github.com/golang-jwt/jwt/v5"

	"github.com/signa-app/trademark-console/internal/models"
)

var parser = jwt.NewParser()

// decode reads the payload of a three-segment token. Neither the header nor
// the signature is looked at; claims are for display only and the server
// authorizes every call.
func decode(token string) (jwt.MapClaims, bool) {
	parts := strings.Split(token, ".")
	if len(parts) != 3 {
		return nil, false
	}
	raw, err := parser.DecodeSegment(parts[1])
	if err != nil {
		return nil, false
	}
	claims := jwt.MapClaims{}
	if err := json.Unmarshal(raw, &claims); err != nil {
		return nil, false
	}
	return claims, true
}

// DecodeExpiry reports whether the token carries an exp claim strictly after now.
func DecodeExpiry(token string, now time.Time) bool {
	claims, ok := decode(token)
	if !ok {
		return false
	}
	exp, err := claims.GetExpirationTime()
	if err != nil || exp == nil {
		return false
	}
	return exp.Time.After(now)
}

// DecodeUser rebuilds a profile from the token claims; it needs a sub claim.
func DecodeUser(token string) (models.User, bool) {
	claims, ok := decode(token)
	if !ok {
		return models.User{}, false
	}
	sub, ok := claimString(claims, "sub")
	if !ok || sub == "" {
		return models.User{}, false
	}
	email, _ := claimString(claims, "email")
	first, _ := claimString(claims, "first_name")
	last, _ := claimString(claims, "last_name")
	return models.User{
		ID:        models.ID(sub),
		Email:     email,
		FirstName: first,
		LastName:  last,
	}, true
}

func claimString(claims jwt.MapClaims, key string) (string, bool) {
	switch v := claims[key].(type) {
	case string:
		return v, true
	case float64:
		return fmt.Sprintf("%.0f", v), true
	default:
		return "", false
	}
}
