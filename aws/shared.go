package aws

import (
	"github.com/fatih/color"
)

var cyan = color.New(color.FgCyan).SprintFunc()
var green = color.New(color.FgGreen).SprintFunc()
var red = color.New(color.FgRed).SprintFunc()
var magenta = color.New(color.FgMagenta).SprintFunc()
