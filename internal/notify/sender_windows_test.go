//go:build windows

package notify

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestToastScript(t *testing.T) {
	t.Parallel()
	n := Notification{
		Title:              "Task overdue",
		Body:               "Ravi's <draft> & notes",
		Tag:                strings.Repeat("x", 70) + "-tail",
		RequireInteraction: true,
		Silent:             true,
	}
	script := toastScript(n)

	assert.Contains(t, script, `scenario="reminder"`)
	assert.Contains(t, script, "Ravi''s &lt;draft&gt; &amp; notes")
	assert.Contains(t, script, `<audio silent="true"/>`)
	assert.Contains(t, script, "CreateToastNotifier('tasknotify')")
	assert.Len(t, toastTag(n.Tag), 64)
}

func TestSoundScript(t *testing.T) {
	t.Parallel()
	assert.Equal(t, "[Console]::Beep(800, 200)", soundScript(""))
	assert.Contains(t, soundScript(`C:\Users\o'neil\chime.wav`), `'C:\Users\o''neil\chime.wav'`)
}
