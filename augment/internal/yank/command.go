package yank

// Command is a yank target. The dispatch tables below map keys to commands
// so the executor can switch exhaustively instead of chasing a string-keyed
// function map.
type Command int

const (
	CmdPrimary Command = iota // value or coordinates of the primary row
	CmdAxisX
	CmdAxisY
	CmdAxisZ
	CmdArea
	CmdAngle
	CmdPoint1
	CmdPoint2
	CmdDelta
	CmdDistanceAngle
	CmdBBMin
	CmdBBCenter
	CmdBBMax
	CmdBBSize
)

// bbKey opens the bounding-box submenu instead of executing a command.
const bbKey = "b"

type menuEntry struct {
	key   string
	cmd   Command
	label string
}

// mainMenu lists the single-key continuations after the initiating y.
// c stands in for the y component: y itself already means "primary value".
var mainMenu = []menuEntry{
	{"y", CmdPrimary, "value / coordinates"},
	{"x", CmdAxisX, "x component"},
	{"c", CmdAxisY, "y component"},
	{"z", CmdAxisZ, "z component"},
	{"a", CmdArea, "area"},
	{"g", CmdAngle, "angle"},
	{"1", CmdPoint1, "point 1"},
	{"2", CmdPoint2, "point 2"},
	{"d", CmdDelta, "delta vector"},
	{"n", CmdDistanceAngle, "distance angle"},
}

// bbMenu lists the continuations after yb.
var bbMenu = []menuEntry{
	{"m", CmdBBMin, "bounding box min"},
	{"c", CmdBBCenter, "bounding box center"},
	{"x", CmdBBMax, "bounding box max"},
	{"s", CmdBBSize, "bounding box size"},
}
