package server

import (
	"bytes"
	"errors"
	"fmt"
	"net/http"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
	"github.com/rs/zerolog/log"

	"cardscan/models"
	"cardscan/pkg/contact"
	"cardscan/pkg/ocr"
	"cardscan/process"
	"cardscan/process/report"
)

func (s *Server) setupRoutes(r *gin.Engine) {
	r.POST("/register", s.registerHandler)
	r.POST("/login", s.loginHandler)
	authGroup := r.Group("")
	authGroup.Use(s.jwtAuthMiddleware())
	authGroup.GET("/me", s.meHandler)
	authGroup.POST("/cards", s.uploadCardHandler)
	authGroup.GET("/cards", s.listCardsHandler)
	authGroup.GET("/cards/:id", s.getCardHandler)
	authGroup.GET("/contacts", s.listContactsHandler)
	authGroup.GET("/contacts/export", s.exportContactsHandler)
}

func (s *Server) jwtAuthMiddleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		authHeader := c.GetHeader("Authorization")
		if len(authHeader) < 8 || authHeader[:7] != "Bearer " {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "missing or invalid Authorization header"})
			return
		}
		token, err := jwt.Parse(authHeader[7:], func(token *jwt.Token) (any, error) {
			if _, ok := token.Method.(*jwt.SigningMethodHMAC); !ok {
				return nil, jwt.ErrInvalidKeyType
			}
			return s.secret, nil
		})
		if err != nil || !token.Valid {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "invalid token"})
			return
		}
		claims, ok := token.Claims.(jwt.MapClaims)
		if !ok {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "invalid claims"})
			return
		}
		username, _ := claims["username"].(string)
		if username == "" {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "invalid claims"})
			return
		}
		role, _ := claims["role"].(string)
		c.Set("username", username)
		c.Set("role", role)
		c.Next()
	}
}

func isAdmin(c *gin.Context) bool {
	return c.GetString("role") == models.RoleAdministrator
}

// currentUser loads the user named by the token.
func (s *Server) currentUser(c *gin.Context) (*models.User, bool) {
	var user models.User
	if err := s.DB.Where("username = ?", c.GetString("username")).First(&user).Error; err != nil {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "user not found"})
		return nil, false
	}
	return &user, true
}

func (s *Server) registerHandler(c *gin.Context) {
	var req struct {
		Username string `json:"username" binding:"required"`
		Password string `json:"password" binding:"required"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	if err := RegisterUser(s.DB, req.Username, req.Password); err != nil {
		code := http.StatusBadRequest
		if errors.Is(err, ErrUserExists) {
			code = http.StatusConflict
		}
		c.JSON(code, gin.H{"error": err.Error()})
		return
	}
	c.JSON(http.StatusOK, gin.H{"message": "user registered successfully"})
}

func (s *Server) loginHandler(c *gin.Context) {
	var req struct {
		Username string `json:"username" binding:"required"`
		Password string `json:"password" binding:"required"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	user, err := Authenticate(s.DB, req.Username, req.Password)
	if err != nil {
		c.JSON(http.StatusUnauthorized, gin.H{"error": err.Error()})
		return
	}
	tokenString, err := issueToken(s.secret, user.Username, user.Role.Name, nowFunc())
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to generate token"})
		return
	}
	c.JSON(http.StatusOK, gin.H{"message": "login successful", "token": tokenString})
}

func (s *Server) meHandler(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{"username": c.GetString("username"), "role": c.GetString("role")})
}

// cardResponse is the JSON shape of a card with its extracted fields.
type cardResponse struct {
	ID       uint            `json:"id"`
	FileName string          `json:"file_name"`
	Status   string          `json:"status"`
	Reason   string          `json:"reason,omitempty"`
	Contact  *contact.Record `json:"contact,omitempty"`
}

func toCardResponse(card models.Card) cardResponse {
	resp := cardResponse{ID: card.ID, FileName: card.FileName, Status: card.Status, Reason: card.FailedReason}
	if card.Contact != nil {
		rec := card.Contact.Record()
		resp.Contact = &rec
	}
	return resp
}

// uploadCardHandler stores an uploaded card image, reads it and returns the
// extracted contact. OCR failures are stored and reported, not rejected.
func (s *Server) uploadCardHandler(c *gin.Context) {
	user, ok := s.currentUser(c)
	if !ok {
		return
	}
	file, err := c.FormFile("file")
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "file missing"})
		return
	}
	if file.Size > s.Config.MaxUploadBytes {
		c.JSON(http.StatusRequestEntityTooLarge, gin.H{"error": fmt.Sprintf("file too large (max %d bytes)", s.Config.MaxUploadBytes)})
		return
	}
	name := filepath.Base(file.Filename)
	if !process.IsSupported(name) {
		c.JSON(http.StatusUnsupportedMediaType, gin.H{"error": "only .png, .jpg and .jpeg images are accepted"})
		return
	}
	dir := filepath.Join(s.Config.UploadBase, user.Username)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "mkdir failed"})
		return
	}
	// stored under a fresh name so re-uploads never overwrite each other
	fullPath := filepath.Join(dir, uuid.NewString()+strings.ToLower(filepath.Ext(name)))
	if err := c.SaveUploadedFile(file, fullPath); err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "save failed"})
		return
	}

	ctx := c.Request.Context()
	res := s.Text.Extract(ctx, fullPath)
	out := process.Outcome{FileName: name, Path: fullPath, OCR: res}
	var rec *contact.Record
	if res.OK() {
		r := s.Fields.Extract(res.Text)
		out.Record = r
		rec = &r
	}
	card := process.CardFromOutcome(out)
	card.UserID = &user.ID
	if ct := file.Header.Get("Content-Type"); ct != "" {
		card.ContentType = ct
	}
	if err := s.Store.SaveCard(ctx, &card, rec); err != nil {
		log.Error().Err(err).Str("file", name).Msg("save card")
		c.JSON(http.StatusInternalServerError, gin.H{"error": "db save failed"})
		return
	}
	c.JSON(http.StatusOK, toCardResponse(card))
}

// listCardsHandler returns recent cards; admin sees all, users their own.
func (s *Server) listCardsHandler(c *gin.Context) {
	user, ok := s.currentUser(c)
	if !ok {
		return
	}
	q := s.DB.Model(&models.Card{}).Preload("Contact")
	if !isAdmin(c) {
		q = q.Where("user_id = ?", user.ID)
	}
	if st := c.Query("status"); st != "" {
		q = q.Where("status = ?", st)
	}
	var cards []models.Card
	if err := q.Order("id desc").Limit(queryLimit(c, 100)).Find(&cards).Error; err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "query failed"})
		return
	}
	out := make([]cardResponse, 0, len(cards))
	for _, card := range cards {
		out = append(out, toCardResponse(card))
	}
	c.JSON(http.StatusOK, out)
}

// getCardHandler returns a single card if admin or owner.
func (s *Server) getCardHandler(c *gin.Context) {
	user, ok := s.currentUser(c)
	if !ok {
		return
	}
	id, err := strconv.ParseUint(c.Param("id"), 10, 64)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid id"})
		return
	}
	var card models.Card
	if err := s.DB.Preload("Contact").First(&card, id).Error; err != nil {
		c.JSON(http.StatusNotFound, gin.H{"error": "not found"})
		return
	}
	if !isAdmin(c) && (card.UserID == nil || *card.UserID != user.ID) {
		c.JSON(http.StatusForbidden, gin.H{"error": "forbidden"})
		return
	}
	c.JSON(http.StatusOK, toCardResponse(card))
}

// contactRow joins a contact with the card it came from.
type contactRow struct {
	CardID   uint   `json:"card_id"`
	FileName string `json:"file_name"`
	contact.Record
}

func (s *Server) queryContacts(c *gin.Context, userID uint, limit int) ([]contactRow, error) {
	q := s.DB.Table("contacts").
		Select("contacts.card_id, cards.file_name, contacts.name, contacts.job_title, contacts.company, contacts.phone, contacts.email").
		Joins("JOIN cards ON cards.id = contacts.card_id")
	if !isAdmin(c) {
		q = q.Where("cards.user_id = ?", userID)
	}
	if term := strings.TrimSpace(c.Query("q")); term != "" {
		like := "%" + term + "%"
		q = q.Where("contacts.name ILIKE ? OR contacts.company ILIKE ? OR contacts.email ILIKE ?", like, like, like)
	}
	var rows []contactRow
	err := q.Order("cards.file_name, cards.id").Limit(limit).Scan(&rows).Error
	return rows, err
}

// listContactsHandler returns extracted contacts, optionally filtered by ?q=.
func (s *Server) listContactsHandler(c *gin.Context) {
	user, ok := s.currentUser(c)
	if !ok {
		return
	}
	rows, err := s.queryContacts(c, user.ID, queryLimit(c, 200))
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "query failed"})
		return
	}
	if rows == nil {
		rows = []contactRow{}
	}
	c.JSON(http.StatusOK, rows)
}

// exportContactsHandler renders the caller's contacts with the report writers.
func (s *Server) exportContactsHandler(c *gin.Context) {
	user, ok := s.currentUser(c)
	if !ok {
		return
	}
	format, err := process.ParseFormat(c.DefaultQuery("format", "txt"))
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	rows, err := s.queryContacts(c, user.ID, 10000)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "query failed"})
		return
	}
	entries := make([]report.Entry, 0, len(rows))
	for _, r := range rows {
		entries = append(entries, report.Entry{FileName: r.FileName, Record: r.Record, Status: ocr.StatusOK})
	}
	var buf bytes.Buffer
	contentType := "text/plain; charset=utf-8"
	filename := "contacts.txt"
	if format == process.FormatXLSX {
		_, err = report.WriteXLSX(&buf, entries, report.Options{})
		contentType = "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet"
		filename = "contacts.xlsx"
	} else {
		_, err = report.WriteText(&buf, entries, report.Options{})
	}
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "export failed"})
		return
	}
	c.Header("Content-Disposition", fmt.Sprintf("attachment; filename=%q", filename))
	c.Data(http.StatusOK, contentType, buf.Bytes())
}

func queryLimit(c *gin.Context, def int) int {
	n, err := strconv.Atoi(c.Query("limit"))
	if err != nil || n <= 0 {
		return def
	}
	return min(n, 1000)
}
