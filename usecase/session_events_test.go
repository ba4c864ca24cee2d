package usecase_test

import (
	"testing"

	"socialhub/domain/model"
	"socialhub/usecase"

	"github.com/stretchr/testify/assert"
)

func TestSessionEvents_NotifyAndUnsubscribe(t *testing.T) {
	events := usecase.NewSessionEvents()

	var got []string
	unsubscribe := events.Subscribe(func(prev, cur *model.Session) {
		from, to := "", ""
		if prev != nil {
			from = prev.UserID
		}
		if cur != nil {
			to = cur.UserID
		}
		got = append(got, from+">"+to)
	})
	calls := 0
	events.Subscribe(func(_, _ *model.Session) { calls++ })

	events.Notify(nil, u1)
	events.Notify(u1, nil)
	unsubscribe()
	events.Notify(nil, u1)

	assert.Equal(t, []string{">u1", "u1>"}, got)
	assert.Equal(t, 3, calls)
}
