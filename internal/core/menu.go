package core

// Button is either a callback button (Action set) or a link button (URL set).
type Button struct {
	Label  string
	Action string
	URL    string
}

// Menu is a transport-neutral keyboard, one button per row.
type Menu []Button
