package indeed

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestSearchURL(t *testing.T) {
	url := searchURL("python developer", "New York, NY", 0)
	assert.Equal(t, "https://www.indeed.com/jobs?q=python+developer&l=New+York%2C+NY&start=0", url)

	url = searchURL("golang", "Remote", 2)
	assert.Equal(t, "https://www.indeed.com/jobs?q=golang&l=Remote&start=20", url)
}
