package domain

// QualityTier is a coarse rating derived from the image width.
type QualityTier string

const (
	QualityHigh   QualityTier = "high"
	QualityMedium QualityTier = "medium"
	QualityLow    QualityTier = "low"
)

// ImageStage names the pipeline step that produced an image variant.
type ImageStage string

const (
	StageOriginal ImageStage = "original"
	StageEnhanced ImageStage = "enhanced"
	StageFinal    ImageStage = "final"
)

// QualityForWidth maps pixel width to a tier: >=800 high, >=400 medium, else low.
func QualityForWidth(width int) QualityTier {
	switch {
	case width >= 800:
		return QualityHigh
	case width >= 400:
		return QualityMedium
	default:
		return QualityLow
	}
}

// ImageAsset is an in-memory image plus its provenance. It is never persisted
// outside a response or an export bundle.
type ImageAsset struct {
	Data        []byte      `json:"-"`
	Format      string      `json:"format"` // "jpeg", "png", "webp", "gif"
	ContentType string      `json:"contentType"`
	Width       int         `json:"width"`
	Height      int         `json:"height"`
	Source      string      `json:"source"`
	SourceURL   string      `json:"sourceUrl,omitempty"`
	Quality     QualityTier `json:"quality"`
	Stage       ImageStage  `json:"stage"`
}

// Extension returns the file extension for the asset format.
func (a *ImageAsset) Extension() string {
	switch a.Format {
	case "jpeg", "jpg":
		return ".jpg"
	case "":
		return ".bin"
	default:
		return "." + a.Format
	}
}
