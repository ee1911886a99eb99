package gb

import "testing"

func TestJoypadReadSelectsNibble(t *testing.T) {
	var j joypad
	j.reset()
	j.setState(ButtonA | ButtonUp)

	j.write(0x20) // bit4=0 selects the direction group, bit5=1 deselects action
	got := j.read()
	if got&0x04 != 0 {
		t.Errorf("read() = %#08b, want bit2 (Up) clear", got)
	}
}

func TestJoypadPollEdgeFiresOnPress(t *testing.T) {
	var j joypad
	j.reset()
	j.write(0x20) // select directions

	if j.poll() {
		t.Fatal("no buttons held yet, poll should not fire")
	}

	j.setState(ButtonDown)
	if !j.poll() {
		t.Fatal("expected poll() to report a 1->0 edge on press")
	}
	if j.poll() {
		t.Fatal("poll() should not re-fire while held steady")
	}
}

func TestJoypadStopWakeMatchesSelectedGroup(t *testing.T) {
	var j joypad
	j.reset()
	j.write(0x10) // select action group only (bit4=1 deselects dir, bit5=0 selects action)
	j.setState(ButtonUp)
	if j.stopWakeMatches() {
		t.Fatal("held button is in the direction group, not the selected action group")
	}

	j.setState(ButtonStart)
	if !j.stopWakeMatches() {
		t.Fatal("expected STOP-wake to match a held button in the selected group")
	}
}
