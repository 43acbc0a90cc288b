//go:build board_brd4160a

package boards

var Selected = BRD4160A
