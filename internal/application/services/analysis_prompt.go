package services

import (
	"fmt"
	"strings"

	"github.com/zatekoja/restaurantfinder/backend/internal/domain/entities"
	apperrors "github.com/zatekoja/restaurantfinder/backend/pkg/errors"
)

const analysisPromptTemplate = `You are an expert restaurant analyst. Analyze the reviews of the restaurant below and return the result as JSON.

[Restaurant name]
%s

[Reviews]
%s

[Important instructions]
- Return ONLY valid JSON.
- Do not include any explanation or text outside the JSON object.
- Follow the format below exactly.

[Fields]
1. sentimentScore: overall positivity (decimal 0.0-1.0)
2. satisfactionScore: overall satisfaction (integer 0-100)
3. strengths: what the restaurant does well (array of at most 3 strings)
4. improvements: what could be improved (array of at most 3 strings)
5. recommendation: why to visit (string, at most 50 characters)
6. targetAudience: who it suits best (string, at most 30 characters)
7. confidence: confidence in this analysis (decimal 0.0-1.0)

[Example output]
{
  "sentimentScore": 0.85,
  "satisfactionScore": 88,
  "strengths": ["delicious food", "attentive service", "pleasant atmosphere"],
  "improvements": ["slightly expensive", "long waits"],
  "recommendation": "Fresh ingredients and careful cooking make a satisfying meal",
  "targetAudience": "Couples looking for fine dining",
  "confidence": 0.9
}

Respond with the JSON object only.
`

// RenderAnalysisPrompt builds the review analysis prompt. The output is a
// pure function of its inputs. At least one review is required.
func RenderAnalysisPrompt(restaurantName string, reviews []entities.Review) (string, error) {
	if len(reviews) == 0 {
		return "", apperrors.NewValidationError("at least one review is required to build an analysis prompt")
	}

	lines := make([]string, len(reviews))
	for i, review := range reviews {
		lines[i] = fmt.Sprintf("Review %d (rating: %d/5): %s", i+1, review.Rating, review.Text)
	}

	return fmt.Sprintf(analysisPromptTemplate, restaurantName, strings.Join(lines, "\n\n")), nil
}
