package notify

import (
	"errors"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
)

func fakeNotifier(sound, desktop bool) (*Notifier, *[]string) {
	var calls []string
	n := New(sound, desktop, nil)
	n.beep = func(freq float64, duration int) error {
		calls = append(calls, fmt.Sprintf("beep %.0f/%d", freq, duration))
		return errors.New("no speaker")
	}
	n.notify = func(title, message string) error {
		calls = append(calls, title+": "+message)
		return nil
	}
	return n, &calls
}

func TestPlayRespectsSoundFlag(t *testing.T) {
	n, calls := fakeNotifier(false, true)
	assert.NoError(t, n.Play())
	assert.Empty(t, *calls)

	n, calls = fakeNotifier(true, true)
	assert.Error(t, n.Play())
	assert.Equal(t, []string{"beep 800/500"}, *calls)
}

func TestInfoRespectsDesktopFlag(t *testing.T) {
	n, calls := fakeNotifier(true, false)
	n.Info(AppName, "done")
	assert.Empty(t, *calls)

	n, calls = fakeNotifier(true, true)
	n.Info(AppName, "done")
	assert.Equal(t, []string{"lockin: done"}, *calls)
}
