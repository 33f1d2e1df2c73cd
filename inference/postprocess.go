package inference

import (
	"sort"

	"github.com/chewxy/math32"

	"github.com/nvr-ai/go-overlay/detection"
	"github.com/nvr-ai/go-overlay/images"
)

// candidate is one decoded anchor before suppression.
type candidate struct {
	classID        int
	score          float32
	x1, y1, x2, y2 float32
}

func (c candidate) rect() images.Rect {
	return images.RectFromCorners(c.x1, c.y1, c.x2, c.y2)
}

// AnchorCount is the number of predictions a YOLOv8 head emits for a square
// input of the given size (strides 8, 16 and 32).
func AnchorCount(size int) int {
	n := 0
	for _, stride := range []int{8, 16, 32} {
		side := size / stride
		n += side * side
	}
	return n
}

// decodeOutput turns a [1, 4+classes, anchors] YOLOv8 output into candidates
// scaled to the source image, dropping anchors scoring below threshold.
func decodeOutput(output []float32, classes, anchors, inputSize, srcWidth, srcHeight int, threshold float32) []candidate {
	scaleX := float32(srcWidth) / float32(inputSize)
	scaleY := float32(srcHeight) / float32(inputSize)

	candidates := make([]candidate, 0, 64)
	for idx := 0; idx < anchors; idx++ {
		classID := 0
		probability := float32(-math32.MaxFloat32)
		for col := 0; col < classes; col++ {
			p := output[anchors*(col+4)+idx]
			if p > probability {
				probability = p
				classID = col
			}
		}
		if probability < threshold {
			continue
		}

		xc, yc := output[idx], output[anchors+idx]
		w, h := output[2*anchors+idx], output[3*anchors+idx]
		candidates = append(candidates, candidate{
			classID: classID,
			score:   probability,
			x1:      math32.Max(0, (xc-w/2)*scaleX),
			y1:      math32.Max(0, (yc-h/2)*scaleY),
			x2:      math32.Min(float32(srcWidth), (xc+w/2)*scaleX),
			y2:      math32.Min(float32(srcHeight), (yc+h/2)*scaleY),
		})
	}
	return candidates
}

// suppress applies class-aware non-maximum suppression. The result is sorted
// by descending score.
func suppress(candidates []candidate, iouThreshold float32) []candidate {
	sort.SliceStable(candidates, func(i, j int) bool {
		return candidates[i].score > candidates[j].score
	})

	kept := make([]candidate, 0, len(candidates))
	for _, c := range candidates {
		overlaps := false
		for _, k := range kept {
			if k.classID == c.classID && images.CalculateIoU(k.rect(), c.rect()) > iouThreshold {
				overlaps = true
				break
			}
		}
		if !overlaps {
			kept = append(kept, c)
		}
	}
	return kept
}

// toResult converts kept candidates into a detection result in source pixels.
func toResult(candidates []candidate, labels []string) detection.Result {
	result := detection.Result{Detections: make([]detection.Detection, 0, len(candidates))}
	for _, c := range candidates {
		name := "unknown"
		if c.classID < len(labels) {
			name = labels[c.classID]
		}
		result.Detections = append(result.Detections, detection.Detection{
			Box: detection.BoundingBox{
				OriginX: float64(c.x1),
				OriginY: float64(c.y1),
				Width:   float64(c.x2 - c.x1),
				Height:  float64(c.y2 - c.y1),
			},
			Categories: []detection.Category{{Name: name, Score: float64(c.score)}},
		})
	}
	return result
}
