package socket

import (
	"github.com/samber/oops"
)

var ErrOversize = oops.New("payload too large for length prefix")
