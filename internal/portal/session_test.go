package portal

import (
	"testing"
	"time"

	jwtlib "github.com/golang-jwt/jwt/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func unsignedToken(t *testing.T, claims jwtlib.MapClaims) string {
	t.Helper()
	claims["exp"] = time.Now().Add(time.Hour).Unix()
	tok, err := jwtlib.NewWithClaims(jwtlib.SigningMethodHS256, claims).SignedString([]byte("any-key"))
	require.NoError(t, err)
	return tok
}

func TestReduce(t *testing.T) {
	s := Reduce(State{}, RefreshAction("a2", ""))
	assert.False(t, s.Authenticated(), "refresh without a session is ignored")

	s = Reduce(s, LoginAction("a1", "r1"))
	assert.Equal(t, State{Access: "a1", Refresh: "r1"}, s)

	s = Reduce(s, RefreshAction("a2", ""))
	assert.Equal(t, State{Access: "a2", Refresh: "r1"}, s)

	s = Reduce(s, RefreshAction("a3", "r3"))
	assert.Equal(t, State{Access: "a3", Refresh: "r3"}, s)

	assert.Equal(t, State{}, Reduce(s, LogoutAction()))
	assert.Equal(t, s, Reduce(s, Action{}))
}

func TestSession_SubscribeSeesEveryChange(t *testing.T) {
	sess := NewSession()
	var seen []State
	stop := sess.Subscribe(func(s State) { seen = append(seen, s) })

	sess.Dispatch(LoginAction("a", "r"))
	sess.Dispatch(LoginAction("a", "r"))
	sess.Dispatch(LogoutAction())
	require.Len(t, seen, 2, "a dispatch that changes nothing is not broadcast")
	assert.True(t, seen[0].Authenticated())
	assert.False(t, seen[1].Authenticated())

	stop()
	sess.Dispatch(LoginAction("b", "r"))
	assert.Len(t, seen, 2)
	assert.Equal(t, "b", sess.State().Access)
}

func TestGuard(t *testing.T) {
	admin := unsignedToken(t, jwtlib.MapClaims{"user_id": 1, "role": "admin"})
	client := unsignedToken(t, jwtlib.MapClaims{"user_id": 2, "role": "client"})
	noRole := unsignedToken(t, jwtlib.MapClaims{"user_id": 3})

	cases := []struct {
		name     string
		token    string
		required string
		want     Decision
	}{
		{"no token", "", "client", Decision{Outcome: Redirect, Path: "/login"}},
		{"garbage", "not.a.jwt", "admin", Decision{Outcome: Redirect, Path: "/login"}},
		{"admin on admin view", admin, "admin", Decision{Outcome: Render}},
		{"admin on client view", admin, "client", Decision{Outcome: Redirect, Path: "/dashboard"}},
		{"client on admin view", client, "admin", Decision{Outcome: Redirect, Path: "/home"}},
		{"role defaults to client", noRole, "client", Decision{Outcome: Render}},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			assert.Equal(t, tc.want, Guard(tc.token, tc.required))
		})
	}

	assert.Equal(t, "admin", State{Access: admin}.Role())
}
