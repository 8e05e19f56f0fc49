package parser

import (
	"github.com/samber/oops"
)

var ErrBadHeader = oops.New("malformed header line")
