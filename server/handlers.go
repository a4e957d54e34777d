package server

import (
	"errors"
	"io"
	"net/http"
	"strconv"
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/skip2/go-qrcode"

	"teraproxy/downloader"
	"teraproxy/internal"
)

const (
	defaultQRSize = 256
	maxQRSize     = 1024
)

type endpointDoc struct {
	Description string            `json:"description"`
	Params      map[string]string `json:"params,omitempty"`
}

var (
	urlParam  = map[string]string{"url": "Share URL or bare share code (required)"}
	fileParam = map[string]string{
		"url":   "Share URL or bare share code (required)",
		"fs_id": "File system ID (required)",
	}
)

func (s *Server) handleIndex(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{
		"name":    "teraproxy",
		"version": s.version,
		"endpoints": map[string]endpointDoc{
			"GET /api/info": {Description: "Get share information", Params: urlParam},
			"GET /api/list": {Description: "Get file list from shared folder", Params: map[string]string{
				"url":   "Share URL or bare share code (required)",
				"path":  "Folder path (default: /)",
				"page":  "Page number (default: 1)",
				"limit": "Items per page (default: 100)",
			}},
			"GET /api/download": {Description: "Get download link", Params: fileParam},
			"GET /api/direct":   {Description: "Get resolved direct download link", Params: fileParam},
			"GET /api/stream":   {Description: "Stream file through the proxy, Range aware", Params: fileParam},
			"GET /api/redirect": {Description: "Redirect to download URL", Params: fileParam},
			"GET /api/qrcode": {Description: "PNG QR code of the direct link", Params: map[string]string{
				"url":   "Share URL or bare share code (required)",
				"fs_id": "File system ID (required)",
				"size":  "Image size in pixels, 200 or 200x200 (default: 256)",
			}},
			"GET /api/health": {Description: "Credential diagnostics"},
		},
		"example": gin.H{
			"getList":     "/api/list?url=https://terabox.com/s/1xxxxx",
			"getDownload": "/api/download?url=https://terabox.com/s/1xxxxx&fs_id=123456",
		},
	})
}

func (s *Server) handleHealth(c *gin.Context) {
	respondSuccess(c, gin.H{
		"credential": downloader.InspectCredential(s.config.Cookie),
	})
}

func (s *Server) handleInfo(c *gin.Context) {
	params, ok := requireQuery(c, "url")
	if !ok {
		return
	}

	info, err := s.resolver.GetShareInfo(c.Request.Context(), params[0])
	if err != nil {
		respondFailure(c, err)
		return
	}
	respondSuccess(c, info)
}

func (s *Server) handleList(c *gin.Context) {
	params, ok := requireQuery(c, "url")
	if !ok {
		return
	}

	page, err := intQuery(c, "page")
	if err != nil {
		respondError(c, http.StatusBadRequest, err.Error())
		return
	}
	limit, err := intQuery(c, "limit")
	if err != nil {
		respondError(c, http.StatusBadRequest, err.Error())
		return
	}

	opts := internal.ListOptions{Path: c.Query("path"), Page: page, Limit: limit}
	list, err := s.resolver.ListFiles(c.Request.Context(), params[0], opts)
	if err != nil {
		respondFailure(c, err)
		return
	}
	respondSuccess(c, list)
}

func (s *Server) handleDownload(c *gin.Context) {
	params, ok := requireQuery(c, "url", "fs_id")
	if !ok {
		return
	}

	link, err := s.resolver.ResolveDownloadLink(c.Request.Context(), params[0], params[1])
	if err != nil {
		respondFailure(c, err)
		return
	}
	respondSuccess(c, link)
}

func (s *Server) handleDirect(c *gin.Context) {
	params, ok := requireQuery(c, "url", "fs_id")
	if !ok {
		return
	}

	direct, err := s.resolver.ResolveDirectLink(c.Request.Context(), params[0], params[1])
	if err != nil {
		respondFailure(c, err)
		return
	}
	respondSuccess(c, direct)
}

func (s *Server) handleRedirect(c *gin.Context) {
	params, ok := requireQuery(c, "url", "fs_id")
	if !ok {
		return
	}

	link, err := s.resolver.ResolveDownloadLink(c.Request.Context(), params[0], params[1])
	if err != nil {
		respondFailure(c, err)
		return
	}
	c.Redirect(http.StatusFound, link.DownloadURL)
}

func (s *Server) handleStream(c *gin.Context) {
	params, ok := requireQuery(c, "url", "fs_id")
	if !ok {
		return
	}

	// the request context ends the upstream transfer when the client goes away
	result, err := s.resolver.OpenStream(c.Request.Context(), params[0], params[1], c.GetHeader("Range"))
	if err != nil {
		respondFailure(c, err)
		return
	}
	defer result.Body.Close()

	for key, values := range result.Header {
		for _, v := range values {
			if v != "" {
				c.Writer.Header().Add(key, v)
			}
		}
	}
	c.Status(result.StatusCode)

	n, err := io.Copy(c.Writer, result.Body)
	if err != nil && !errors.Is(err, c.Request.Context().Err()) {
		// headers are already on the wire, nothing left to report to the client
		requestLogger(c).Warn("stream interrupted after %d bytes: %v", n, err)
		return
	}
	requestLogger(c).Debug("streamed %d bytes for fs_id %s", n, params[1])
}

func (s *Server) handleQRCode(c *gin.Context) {
	params, ok := requireQuery(c, "url", "fs_id")
	if !ok {
		return
	}

	size := parseSize(c.Query("size"))
	if size <= 0 {
		size = defaultQRSize
	}
	if size > maxQRSize {
		size = maxQRSize
	}

	direct, err := s.resolver.ResolveDirectLink(c.Request.Context(), params[0], params[1])
	if err != nil {
		respondFailure(c, err)
		return
	}

	png, err := qrcode.Encode(direct.DirectURL, qrcode.Medium, size)
	if err != nil {
		respondError(c, http.StatusInternalServerError, "Failed to encode QR code: "+err.Error())
		return
	}
	c.Header("Cache-Control", "no-store")
	c.Data(http.StatusOK, "image/png", png)
}

// intQuery returns 0 for an absent parameter so the core applies its default
func intQuery(c *gin.Context, name string) (int, error) {
	raw := strings.TrimSpace(c.Query(name))
	if raw == "" {
		return 0, nil
	}
	n, err := strconv.Atoi(raw)
	if err != nil {
		return 0, internal.NewValidationErrorWithValue(name, "must be an integer", raw)
	}
	return n, nil
}

// parseSize accepts "200" or "200x200"
func parseSize(s string) int {
	s = strings.TrimSpace(s)
	if s == "" {
		return 0
	}
	if idx := strings.Index(s, "x"); idx > 0 {
		s = strings.TrimSpace(s[:idx])
	}
	n, err := strconv.Atoi(s)
	if err != nil || n <= 0 {
		return 0
	}
	return n
}
