// Copyright 2024 Bjørn Erik Pedersen
// SPDX-License-Identifier: MIT

package codec

import (
	"sync"

	"gopkg.in/gographics/imagick.v3/imagick"
)

var imagickOnce sync.Once

// imagickInit lazily starts the MagickWand environment on first use, so a
// process that never decodes an image never pays ImageMagick's startup
// cost. There is no corresponding Terminate call: MagickWand is safe to
// leave initialized for the life of the process, and fiv's engine has no
// natural "done with images" event to hang a Terminate off of.
func imagickInit() {
	imagickOnce.Do(imagick.Initialize)
}
