package face

import (
	"fmt"
	"log"
	"sync"

	goface "github.com/Kagami/go-face"
	"gocv.io/x/gocv"
)

// DlibRecognizer implements Recognizer with dlib's ResNet face model via go-face.
//
// The model directory must contain shape_predictor_5_face_landmarks.dat,
// dlib_face_recognition_resnet_model_v1.dat and mmod_human_face_detector.dat.
type DlibRecognizer struct {
	mu  sync.Mutex
	rec *goface.Recognizer
}

// NewDlibRecognizer loads the dlib models from modelDir.
func NewDlibRecognizer(modelDir string) (*DlibRecognizer, error) {
	rec, err := goface.NewRecognizer(modelDir)
	if err != nil {
		return nil, fmt.Errorf("load face models from %s: %w", modelDir, err)
	}
	log.Printf("Loaded face models from %s", modelDir)
	return &DlibRecognizer{rec: rec}, nil
}

// Recognize detects every face in img and returns its box and descriptor.
func (d *DlibRecognizer) Recognize(img *gocv.Mat) ([]Detection, error) {
	if img == nil || img.Empty() {
		return nil, nil
	}

	buf, err := gocv.IMEncode(gocv.JPEGFileExt, *img)
	if err != nil {
		return nil, fmt.Errorf("encode image: %w", err)
	}
	defer buf.Close()

	d.mu.Lock()
	defer d.mu.Unlock()

	if d.rec == nil {
		return nil, fmt.Errorf("recognizer closed")
	}

	faces, err := d.rec.Recognize(buf.GetBytes())
	if err != nil {
		return nil, fmt.Errorf("recognize: %w", err)
	}

	dets := make([]Detection, len(faces))
	for i, f := range faces {
		emb := make(Embedding, len(f.Descriptor))
		copy(emb, f.Descriptor[:])
		dets[i] = Detection{Box: f.Rectangle, Embedding: emb}
	}
	return dets, nil
}

// Close releases the dlib models.
func (d *DlibRecognizer) Close() error {
	d.mu.Lock()
	defer d.mu.Unlock()

	if d.rec != nil {
		d.rec.Close()
		d.rec = nil
	}
	return nil
}
