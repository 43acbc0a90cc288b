//go:build !board_brd4100a && !board_brd4160a

package boards

// Selected is the zero board when no board tag is set.
var Selected Board
