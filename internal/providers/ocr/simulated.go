package ocr

import (
	"context"

	"go.uber.org/zap"
)

// SimulatedProvider stands in for a hosted OCR service such as Google Cloud
// Vision. It returns a fixed sample so the import pipeline can be exercised
// end to end without external credentials.
type SimulatedProvider struct {
	logger *zap.Logger
}

func NewSimulated(logger *zap.Logger) *SimulatedProvider {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &SimulatedProvider{logger: logger}
}

const sampleExtraction = `Classic Chocolate Chip Cookies

INGREDIENTS
2 1/4 cups all-purpose flour
1 teaspoon baking soda
1 teaspoon salt
1 cup (2 sticks) butter, softened
3/4 cup granulated sugar
3/4 cup packed brown sugar
1 teaspoon vanilla extract
2 large eggs
2 cups semi-sweet chocolate chips
1 cup chopped nuts (optional)

INSTRUCTIONS
1. Preheat oven to 375°F.
2. Combine flour, baking soda and salt in small bowl.
3. Beat butter, granulated sugar, brown sugar and vanilla extract in large mixer bowl until creamy.
4. Add eggs, one at a time, beating well after each addition.
5. Gradually beat in flour mixture.
6. Stir in chocolate chips and nuts.
7. Drop by rounded tablespoon onto ungreased baking sheets.
8. Bake for 9 to 11 minutes or until golden brown.
9. Cool on baking sheets for 2 minutes; remove to wire racks to cool completely.

Makes about 5 dozen cookies
Cook time: 10 minutes
Prep time: 15 minutes`

func (p *SimulatedProvider) ExtractText(ctx context.Context, imageKey string) (string, error) {
	p.logger.Debug("processing image", zap.String("image_key", imageKey))
	return sampleExtraction, nil
}
