package server

import (
	"net/http"
	"strconv"
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/poiesic/jobsift/search"
)

func (s *Server) handleHealth(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{"status": "ok"})
}

// handleSearchGet accepts the query and filters as URL parameters:
// q, location (repeatable), industry (repeatable), experience, remote,
// salary_min and salary_max.
func (s *Server) handleSearchGet(c *gin.Context) {
	req := search.Request{Query: c.Query("q")}

	filters := &search.Filters{
		Locations:       cleanParams(c.QueryArray("location")),
		Industries:      cleanParams(c.QueryArray("industry")),
		ExperienceLevel: c.Query("experience"),
	}
	if v, ok := c.GetQuery("remote"); ok {
		b, err := strconv.ParseBool(v)
		if err != nil {
			_ = c.Error(badRequest("remote must be true or false", err))
			return
		}
		filters.Remote = &b
	}
	for name, dst := range map[string]**int{"salary_min": &filters.SalaryMin, "salary_max": &filters.SalaryMax} {
		if v, ok := c.GetQuery(name); ok {
			n, err := strconv.Atoi(v)
			if err != nil {
				_ = c.Error(badRequest(name+" must be an integer", err))
				return
			}
			*dst = &n
		}
	}
	if !emptyFilters(filters) {
		req.Filters = filters
	}
	s.search(c, req)
}

func (s *Server) handleSearchPost(c *gin.Context) {
	var req search.Request
	if err := c.ShouldBindJSON(&req); err != nil {
		_ = c.Error(badRequest("invalid JSON body", err))
		return
	}
	s.search(c, req)
}

func (s *Server) search(c *gin.Context, req search.Request) {
	resp, err := s.backend.Search(c.Request.Context(), req)
	if err != nil {
		_ = c.Error(err)
		return
	}
	c.JSON(http.StatusOK, resp)
}

func (s *Server) handleStatus(c *gin.Context) {
	c.JSON(http.StatusOK, s.backend.Status(c.Request.Context()))
}

func (s *Server) handleInvalidate(c *gin.Context) {
	if err := s.backend.Invalidate(c.Request.Context()); err != nil {
		_ = c.Error(err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"status": "invalidated"})
}

func emptyFilters(f *search.Filters) bool {
	return len(f.Locations) == 0 && len(f.Industries) == 0 && f.ExperienceLevel == "" &&
		f.Remote == nil && f.SalaryMin == nil && f.SalaryMax == nil
}

// cleanParams drops blank values. Values are not split on commas since
// locations such as "Austin, TX" contain them.
func cleanParams(values []string) []string {
	var out []string
	for _, v := range values {
		if v = strings.TrimSpace(v); v != "" {
			out = append(out, v)
		}
	}
	return out
}
