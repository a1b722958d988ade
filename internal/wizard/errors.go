package wizard

import "errors"

var errGeneratorMissing = errors.New("generator_not_configured")
