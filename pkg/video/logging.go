package video

import "github.com/framebridge/framebridge/internal/logging"

var logger = logging.NewLogger("framebridge/video")
