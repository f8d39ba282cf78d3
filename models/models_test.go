package models

import (
	"encoding/json"
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestTokenScenario(t *testing.T) {
	tok := NewToken(map[string]any{
		"id":           json.Number("5"),
		"token_number": "A005",
		"status":       json.Number("4"),
	})

	id, ok := tok.ID()
	require.True(t, ok)
	assert.Equal(t, int64(5), id)

	num, ok := tok.TokenNumber()
	require.True(t, ok)
	assert.Equal(t, "A005", num)

	status, ok := tok.Status()
	require.True(t, ok)
	assert.Equal(t, int64(4), status)

	for name, get := range map[string]func() (int64, bool){
		"location":      tok.LocationID,
		"service point": tok.ServicePointID,
		"category":      tok.CategoryID,
	} {
		_, ok := get()
		assert.False(t, ok, name)
	}
	for name, get := range map[string]func() (string, bool){
		"customer name":  tok.CustomerName,
		"customer phone": tok.CustomerPhone,
		"created":        tok.CreatedAt,
		"called":         tok.CalledAt,
		"served":         tok.ServedAt,
		"completed":      tok.CompletedAt,
	} {
		_, ok := get()
		assert.False(t, ok, name)
	}
}

func TestTokenRoundTrip(t *testing.T) {
	rec := map[string]any{
		"id":                json.Number("12"),
		"token_number":      "B012",
		"mlocation_id":      json.Number("1"),
		"mservicepoint_id":  "3",
		"mtokencategory_id": 2,
		"customer_name":     "Ada",
		"customer_phone":    "555-0100",
		"status":            json.Number("1"),
		"created_at":        "2024-05-01 09:00:00",
		"called_at":         "2024-05-01 09:05:00",
		"served_at":         "2024-05-01 09:06:00",
		"completed_at":      "2024-05-01 09:10:00",
	}
	tok := NewToken(rec)

	ints := map[string]func() (int64, bool){
		"id": tok.ID, "mlocation_id": tok.LocationID, "mservicepoint_id": tok.ServicePointID,
		"mtokencategory_id": tok.CategoryID, "status": tok.Status,
	}
	want := map[string]int64{"id": 12, "mlocation_id": 1, "mservicepoint_id": 3, "mtokencategory_id": 2, "status": 1}
	for key, get := range ints {
		got, ok := get()
		require.True(t, ok, key)
		assert.Equal(t, want[key], got, key)
	}

	strs := map[string]func() (string, bool){
		"token_number": tok.TokenNumber, "customer_name": tok.CustomerName, "customer_phone": tok.CustomerPhone,
		"created_at": tok.CreatedAt, "called_at": tok.CalledAt, "served_at": tok.ServedAt, "completed_at": tok.CompletedAt,
	}
	for key, get := range strs {
		got, ok := get()
		require.True(t, ok, key)
		assert.Equal(t, rec[key], got, key)
	}
}

func TestTokenIsSnapshot(t *testing.T) {
	nested := map[string]any{"name": "Main"}
	rec := map[string]any{"token_number": "A001", "location": nested}
	tok := NewToken(rec)

	rec["token_number"] = "Z999"
	nested["name"] = "Changed"

	num, _ := tok.TokenNumber()
	assert.Equal(t, "A001", num)
	loc, ok := tok.Record().Object("location")
	require.True(t, ok)
	assert.Equal(t, "Main", loc["name"])

	copied := tok.Record()
	copied["token_number"] = "mutated"
	num, _ = tok.TokenNumber()
	assert.Equal(t, "A001", num)
}

func TestTokenAccessorsNeverPanic(t *testing.T) {
	tok := NewToken(map[string]any{
		"id":            "not-a-number",
		"status":        []any{"x"},
		"token_number":  map[string]any{"a": 1},
		"customer_name": nil,
	})
	assert.NotPanics(t, func() {
		_, ok := tok.ID()
		assert.False(t, ok)
		_, ok = tok.Status()
		assert.False(t, ok)
		_, ok = tok.TokenNumber()
		assert.False(t, ok)
		_, ok = tok.CustomerName()
		assert.False(t, ok)
	})

	empty := NewToken(nil)
	_, ok := empty.ID()
	assert.False(t, ok)
	assert.Empty(t, empty.Record())
}

func TestTokenMarshalJSON(t *testing.T) {
	tok := NewToken(map[string]any{"id": json.Number("5"), "token_number": "A005"})
	raw, err := json.Marshal(tok)
	require.NoError(t, err)
	assert.JSONEq(t, `{"id":5,"token_number":"A005"}`, string(raw))
}

func TestRecordCoercion(t *testing.T) {
	r := Record{
		"int":       json.Number("7"),
		"float":     json.Number("7.0"),
		"frac":      json.Number("7.5"),
		"str":       " 42 ",
		"bad":       "abc",
		"native":    int32(9),
		"f64":       float64(3),
		"bool":      true,
		"one":       json.Number("1"),
		"two":       json.Number("2"),
		"null":      nil,
		"numstring": json.Number("12"),
	}

	tests := []struct {
		key    string
		want   int64
		wantOK bool
	}{
		{"int", 7, true},
		{"float", 7, true},
		{"frac", 0, false},
		{"str", 42, true},
		{"bad", 0, false},
		{"native", 9, true},
		{"f64", 3, true},
		{"bool", 0, false},
		{"null", 0, false},
		{"missing", 0, false},
	}
	for _, tt := range tests {
		t.Run(tt.key, func(t *testing.T) {
			got, ok := r.Int(tt.key)
			assert.Equal(t, tt.wantOK, ok)
			assert.Equal(t, tt.want, got)
		})
	}

	s, ok := r.String("numstring")
	require.True(t, ok)
	assert.Equal(t, "12", s)
	s, ok = r.String("f64")
	require.True(t, ok)
	assert.Equal(t, "3", s)
	_, ok = r.String("bool")
	assert.False(t, ok)

	b, ok := r.Bool("one")
	require.True(t, ok)
	assert.True(t, b)
	_, ok = r.Bool("two")
	assert.False(t, ok)
}

func TestRecordWith(t *testing.T) {
	orig := Record{"name": "Counter 1"}
	updated := orig.With("id", 3)

	assert.Equal(t, Record{"name": "Counter 1", "id": 3}, updated)
	assert.Equal(t, Record{"name": "Counter 1"}, orig)

	var nilRec Record
	assert.Equal(t, Record{"id": 1}, nilRec.With("id", 1))
}

func TestPayload(t *testing.T) {
	t.Run("array of objects", func(t *testing.T) {
		src := []any{
			map[string]any{"id": json.Number("1")},
			map[string]any{"id": json.Number("2")},
		}
		p := NewPayload(src)
		assert.Equal(t, 2, p.Len())

		recs, ok := p.Records()
		require.True(t, ok)
		require.Len(t, recs, 2)
		id, _ := recs[1].Int("id")
		assert.Equal(t, int64(2), id)

		_, ok = p.Record()
		assert.False(t, ok)
		assert.Equal(t, src, p.Raw())
	})

	t.Run("mixed array", func(t *testing.T) {
		_, ok := NewPayload([]any{map[string]any{}, "x"}).Records()
		assert.False(t, ok)
	})

	t.Run("object", func(t *testing.T) {
		p := NewPayload(map[string]any{"next_token": "A010"})
		rec, ok := p.Record()
		require.True(t, ok)
		assert.Equal(t, "A010", rec["next_token"])
	})

	t.Run("decode", func(t *testing.T) {
		p := NewPayload(map[string]any{"id": json.Number("9"), "name": "Lobby"})
		var dst struct {
			ID   int    `json:"id"`
			Name string `json:"name"`
		}
		require.NoError(t, p.Decode(&dst))
		assert.Equal(t, 9, dst.ID)
		assert.Equal(t, "Lobby", dst.Name)
	})

	t.Run("null", func(t *testing.T) {
		p := NewPayload(nil)
		assert.True(t, p.IsNull())
		assert.Equal(t, 0, p.Len())
	})

	t.Run("snapshot", func(t *testing.T) {
		src := []any{map[string]any{"id": "1"}}
		p := NewPayload(src)
		src[0].(map[string]any)["id"] = "2"
		recs, _ := p.Records()
		assert.Equal(t, "1", recs[0]["id"])
	})
}

func signedToken(t *testing.T, claims jwt.MapClaims) string {
	t.Helper()
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	s, err := token.SignedString([]byte("test-secret"))
	require.NoError(t, err)
	return s
}

func TestAuthResponse(t *testing.T) {
	exp := time.Now().Add(time.Hour).Truncate(time.Second)
	access := signedToken(t, jwt.MapClaims{"sub": "42", "exp": exp.Unix()})

	resp := NewAuthResponse(map[string]any{
		"user":        map[string]any{"id": json.Number("42"), "username": "ada@example.com"},
		"permissions": []any{"tokens.call", "tokens.issue"},
		"tokens":      map[string]any{"accessToken": access, "refreshToken": "r-1"},
	})

	id, ok := resp.UserID()
	require.True(t, ok)
	assert.Equal(t, int64(42), id)
	name, ok := resp.Username()
	require.True(t, ok)
	assert.Equal(t, "ada@example.com", name)

	assert.Equal(t, access, resp.AccessToken())
	assert.Equal(t, "r-1", resp.RefreshToken())
	assert.Equal(t, []any{"tokens.call", "tokens.issue"}, resp.Permissions())
	assert.True(t, resp.HasPermission("tokens.call"))
	assert.False(t, resp.HasPermission("clients.delete"))

	claims, err := resp.AccessTokenClaims()
	require.NoError(t, err)
	assert.Equal(t, "42", claims["sub"])

	got, err := resp.AccessTokenExpiry()
	require.NoError(t, err)
	assert.True(t, exp.Equal(got))
}

func TestAuthResponseDefaults(t *testing.T) {
	resp := NewAuthResponse(map[string]any{})

	assert.Empty(t, resp.User())
	assert.Equal(t, []any{}, resp.Permissions())
	assert.Equal(t, "", resp.AccessToken())
	assert.Equal(t, "", resp.RefreshToken())
	_, ok := resp.UserID()
	assert.False(t, ok)

	_, err := resp.AccessTokenClaims()
	assert.ErrorIs(t, err, ErrNoAccessToken)
}

func TestAuthResponseBadToken(t *testing.T) {
	resp := NewAuthResponse(map[string]any{
		"tokens": map[string]any{"accessToken": "not-a-jwt"},
	})
	_, err := resp.AccessTokenClaims()
	require.Error(t, err)
	assert.Contains(t, err.Error(), "parse access token")

	noExp := NewAuthResponse(map[string]any{
		"tokens": map[string]any{"accessToken": signedToken(t, jwt.MapClaims{"sub": "1"})},
	})
	_, err = noExp.AccessTokenExpiry()
	assert.ErrorIs(t, err, ErrNoExpiry)
}

func TestAuthResponseKeyedPermissions(t *testing.T) {
	resp := NewAuthResponse(map[string]any{
		"permissions": map[string]any{"tokens.call": true, "clients.delete": false},
	})
	assert.True(t, resp.HasPermission("tokens.call"))
	assert.False(t, resp.HasPermission("clients.delete"))
}
