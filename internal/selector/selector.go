package selector

// Package selector holds the pure decision logic for picking acceptable
// streams out of the extraction engine's candidate list. It trusts nothing:
// remote metadata sometimes pairs a real resolution with a placeholder byte
// size, so candidates must also pass a resolution-tiered minimum-size check.

import "github.com/fetchkit/fetchd/internal/model"

const mib = 1024 * 1024

// sizeMinimums maps the standard ladder heights to their minimum plausible
// filesize. The lookup is exact: any other height takes defaultMinBytes.
var sizeMinimums = map[int]int64{
	2160: 20 * mib,
	1440: 12 * mib,
	1080: 8 * mib,
	720:  5 * mib,
	480:  3 * mib,
	360:  2 * mib,
	240:  1 * mib,
	144:  mib / 2,
}

const defaultMinBytes = 2 * mib

// IsPlausibleSize reports whether a reported filesize is believable for the
// reported height. Missing values fail outright. Heights off the standard
// ladder need 2 MiB.
func IsPlausibleSize(size int64, height int) bool {
	if size <= 0 || height <= 0 {
		return false
	}
	if min, ok := sizeMinimums[height]; ok {
		return size >= min
	}
	return size >= defaultMinBytes
}

// Select picks the best acceptable video and/or audio stream for the
// requested content type. Either side of the plan may come back nil when no
// candidate qualifies; callers decide whether that is fatal.
func Select(formats []model.MediaFormat, contentType model.ContentType, qualityCeiling int) model.SelectionPlan {
	var plan model.SelectionPlan
	if contentType.WantsVideo() {
		plan.Video = pickVideo(formats, qualityCeiling)
	}
	if contentType.WantsAudio() {
		plan.Audio = pickAudio(formats)
	}
	return plan
}

// pickVideo keeps the highest resolution at or under the ceiling among
// candidates with a video codec and a plausible size. First wins ties.
func pickVideo(formats []model.MediaFormat, ceiling int) *model.MediaFormat {
	var best model.MediaFormat
	hasBest := false
	for _, f := range formats {
		if !f.HasVideo || f.Height <= 0 || f.Height > ceiling {
			continue
		}
		if !IsPlausibleSize(f.Size, f.Height) {
			continue
		}
		if !hasBest || f.Height > best.Height {
			best = f
			hasBest = true
		}
	}
	if !hasBest {
		return nil
	}
	return &best
}

// pickAudio keeps the largest audio-only candidate by reported size.
// First wins ties.
func pickAudio(formats []model.MediaFormat) *model.MediaFormat {
	var best model.MediaFormat
	hasBest := false
	for _, f := range formats {
		if !f.HasAudio || f.HasVideo {
			continue
		}
		if !hasBest || f.Size > best.Size {
			best = f
			hasBest = true
		}
	}
	if !hasBest {
		return nil
	}
	return &best
}
