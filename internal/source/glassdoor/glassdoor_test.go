package glassdoor

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestSearchURL(t *testing.T) {
	url := searchURL("python developer", "New York, NY", 1)
	assert.Equal(t, "https://www.glassdoor.com/Job/jobs.htm?sc.keyword=python+developer&locKeyword=New+York%2C+NY&includeNoSalaryJobs=true&pageNum=1", url)

	url = searchURL("golang", "Remote", 3)
	assert.Equal(t, "https://www.glassdoor.com/Job/jobs.htm?sc.keyword=golang&locKeyword=Remote&includeNoSalaryJobs=true&pageNum=3", url)
}

func TestExternalID(t *testing.T) {
	assert.Equal(t, "123456", externalID("https://www.glassdoor.com/job-listing/dev.htm?jobListingId=123456"))
	assert.Empty(t, externalID("https://www.glassdoor.com/job-listing/dev.htm"))
}
