package planning

import (
	"github.com/basketlab/walkdrv/internal/frontmatter"
	"github.com/basketlab/walkdrv/internal/types"
)

func decodePlanningResult(raw string) (*types.PlanningResult, error) {
	var pr types.PlanningResult
	body, err := frontmatter.Decode([]byte(raw), &pr)
	if err != nil {
		return nil, err
	}
	pr.Body = body
	return &pr, nil
}
