package tui

type state int

const (
	playerState state = iota
	queueState
)
