//go:build board_brd4100a

package boards

var Selected = BRD4100A
