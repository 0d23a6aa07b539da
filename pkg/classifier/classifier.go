package classifier

import (
	"context"

	"github.com/jpbenga/tyrecheck/internal/models"
)

// Classifier defines the boundary to the external classification model
type Classifier interface {
	// Classify runs the model against the image at the given path and
	// returns the parsed classification
	Classify(ctx context.Context, imagePath string) (*models.Classification, error)

	// ValidateConfig validates that the classifier is properly configured
	ValidateConfig() error
}
