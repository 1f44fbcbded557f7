package handler

import (
	"context"
	"errors"
	"net/http"
	"path/filepath"
	"strings"

	"github.com/damoang/angple-elements/internal/common"
	"github.com/damoang/angple-elements/internal/config"
	"github.com/damoang/angple-elements/internal/domain"
	"github.com/damoang/angple-elements/internal/element"
	"github.com/damoang/angple-elements/internal/forms"
	"github.com/damoang/angple-elements/internal/middleware"
	"github.com/damoang/angple-elements/internal/repository"
	"github.com/damoang/angple-elements/internal/sitetree"
	"github.com/damoang/angple-elements/internal/versioned"
	"github.com/damoang/angple-elements/pkg/ginutil"
	"github.com/gin-gonic/gin"
)

const maxPerPage = 100

// errPageMismatch: the request is bound to a page other than the element's own
var errPageMismatch = errors.New("element belongs to another page")

var imageExtensions = map[string]bool{
	".jpg": true, ".jpeg": true, ".png": true, ".gif": true, ".webp": true, ".svg": true,
}

// ElementHandler handles element object HTTP requests
type ElementHandler struct {
	service *element.Service
	perms   *element.Permissions
	pages   repository.PageRepository
	perPage int
	folder  string
}

// NewElementHandler creates a new ElementHandler
func NewElementHandler(service *element.Service, perms *element.Permissions, pages repository.PageRepository, cfg config.ElementsConfig) *ElementHandler {
	folder := cfg.UploadFolder
	if folder == "" {
		folder = element.ImageFolder
	}
	return &ElementHandler{
		service: service,
		perms:   perms,
		pages:   pages,
		perPage: cfg.PerPage,
		folder:  folder,
	}
}

// ListElements handles GET /api/elements
// Query: stage=live|draft, q, filter[Headline]=..., page, per_page.
// Elements of the current page only when X-Page-ID is given.
// @Summary      콘텐츠 블록 목록 조회
// @Description  live 또는 draft 단계의 콘텐츠 블록을 검색하고 페이지네이션하여 조회합니다
// @Tags         elements
// @Produce      json
// @Param        stage      query     string  false  "live | draft"  default(live)
// @Param        q          query     string  false  "Title/Content 검색어"
// @Param        page       query     int     false  "페이지 번호"  default(1)
// @Param        per_page   query     int     false  "페이지당 항목 수"
// @Param        X-Page-ID  header    int     false  "현재 페이지 ID"
// @Success      200  {object}  common.APIResponse{data=[]element.Summary}
// @Failure      400  {object}  common.APIResponse
// @Failure      403  {object}  common.APIResponse
// @Router       /elements [get]
func (h *ElementHandler) ListElements(c *gin.Context) {
	ctx := c.Request.Context()
	stage := versioned.ParseStage(c.DefaultQuery("stage", "live"))

	op := element.OpView
	if stage == versioned.Draft {
		op = element.OpEdit
	}
	if !h.perms.Decide(ctx, op, nil, middleware.GetMember(c), nil).Allowed {
		forbidden(c)
		return
	}

	params := element.ListParams{
		Search:  c.Query("q"),
		Filters: c.QueryMap("filter"),
		Page:    ginutil.QueryInt(c, "page", 1),
		PerPage: ginutil.QueryInt(c, "per_page", h.perPage),
	}
	if params.Page < 1 {
		params.Page = 1
	}
	if params.PerPage < 1 || params.PerPage > maxPerPage {
		params.PerPage = h.perPage
	}
	if page := element.ResolvePage(ctx); page != nil {
		params.ParentPageID = &page.ID
	}

	rows, total, err := h.service.List(ctx, stage, params)
	if err != nil {
		h.fail(c, err)
		return
	}
	common.SuccessResponse(c, rows, common.NewMeta(string(stage), params.Page, params.PerPage, total))
}

// GetElement handles GET /api/elements/:id (?stage=draft needs edit rights).
// Elements the caller may not view answer like missing ones.
// @Summary      콘텐츠 블록 조회
// @Description  이미지와 링크를 포함한 콘텐츠 블록을 조회합니다
// @Tags         elements
// @Produce      json
// @Param        id         path      int     true   "블록 ID"
// @Param        stage      query     string  false  "live | draft"  default(live)
// @Param        X-Page-ID  header    int     false  "현재 페이지 ID"
// @Success      200  {object}  common.APIResponse{data=element.View}
// @Failure      403  {object}  common.APIResponse
// @Failure      404  {object}  common.APIResponse
// @Router       /elements/{id} [get]
func (h *ElementHandler) GetElement(c *gin.Context) {
	id, ok := idParam(c)
	if !ok {
		return
	}
	ctx := c.Request.Context()
	member := middleware.GetMember(c)
	stage := versioned.ParseStage(c.DefaultQuery("stage", "live"))

	e, err := h.service.Find(ctx, id)
	if err != nil {
		h.fail(c, err)
		return
	}
	ctx, err = h.ownerContext(ctx, e)
	if errors.Is(err, errPageMismatch) || (err == nil && !h.perms.CanView(ctx, e, member)) {
		notFound(c)
		return
	}
	if err != nil {
		h.fail(c, err)
		return
	}
	if stage == versioned.Draft && !h.perms.CanEdit(ctx, e, member) {
		forbidden(c)
		return
	}

	view, err := h.service.View(ctx, stage, id, h.pageURL(ctx))
	if err != nil {
		h.fail(c, err)
		return
	}
	common.SuccessResponse(c, view, nil)
}

// GetEditForm handles GET /api/elements/:id/fields
// @Summary      편집 폼 조회
// @Description  요청 언어로 번역된 CMS 편집 필드 목록을 조회합니다
// @Tags         elements
// @Produce      json
// @Security     BearerAuth
// @Param        id               path      int     true   "블록 ID"
// @Param        Accept-Language  header    string  false  "ko, en"
// @Success      200  {object}  common.APIResponse
// @Failure      403  {object}  common.APIResponse
// @Failure      404  {object}  common.APIResponse
// @Router       /elements/{id}/fields [get]
func (h *ElementHandler) GetEditForm(c *gin.Context) {
	id, ok := idParam(c)
	if !ok {
		return
	}
	ctx := c.Request.Context()

	e, err := h.service.Get(ctx, versioned.Draft, id)
	if err != nil {
		h.fail(c, err)
		return
	}
	if ctx, err = h.ownerContext(ctx, e); err != nil {
		h.fail(c, err)
		return
	}
	if !h.perms.CanEdit(ctx, e, middleware.GetMember(c)) {
		forbidden(c)
		return
	}

	fields, err := h.service.EditForm(middleware.GetLocale(c))
	if err != nil {
		h.fail(c, err)
		return
	}
	common.SuccessResponse(c, gin.H{"record": e, "fields": fields}, nil)
}

// GetNewForm handles GET /api/elements/fields, the form for a new element
// @Summary      새 블록 폼 조회
// @Tags         elements
// @Produce      json
// @Security     BearerAuth
// @Success      200  {object}  common.APIResponse
// @Failure      403  {object}  common.APIResponse
// @Router       /elements/fields [get]
func (h *ElementHandler) GetNewForm(c *gin.Context) {
	if !h.perms.CanCreate(c.Request.Context(), middleware.GetMember(c), nil) {
		forbidden(c)
		return
	}
	fields, err := h.service.EditForm(middleware.GetLocale(c))
	if err != nil {
		h.fail(c, err)
		return
	}
	common.SuccessResponse(c, gin.H{"fields": fields}, nil)
}

// CreateElement handles POST /api/elements
// @Summary      콘텐츠 블록 생성
// @Description  draft 단계에 새 블록을 만듭니다. X-Page-ID가 있으면 그 페이지에 속합니다
// @Tags         elements
// @Accept       json
// @Produce      json
// @Security     BearerAuth
// @Param        request    body      element.Input  true   "블록 내용"
// @Param        X-Page-ID  header    int            false  "현재 페이지 ID"
// @Success      201  {object}  common.APIResponse{data=domain.ElementObject}
// @Failure      400  {object}  common.APIResponse
// @Failure      403  {object}  common.APIResponse
// @Router       /elements [post]
func (h *ElementHandler) CreateElement(c *gin.Context) {
	ctx := c.Request.Context()
	member := middleware.GetMember(c)

	var in element.Input
	if err := c.ShouldBindJSON(&in); err != nil {
		common.ErrorResponse(c, http.StatusBadRequest, "Invalid request body", err)
		return
	}
	if page := element.ResolvePage(ctx); page != nil && in.ParentPageID == nil {
		in.ParentPageID = &page.ID
	}

	extra := map[string]interface{}{"parent_page_id": in.ParentPageID}
	if !h.perms.CanCreate(ctx, member, extra) {
		forbidden(c)
		return
	}

	e, err := h.service.Create(ctx, in, member)
	if err != nil {
		h.fail(c, err)
		return
	}
	common.CreatedResponse(c, e)
}

// UpdateElement handles PUT /api/elements/:id
// Moving an element to another page needs edit rights there as well;
// omitting parent_page_id keeps the current one.
// @Summary      콘텐츠 블록 수정
// @Description  draft 단계의 블록을 수정합니다
// @Tags         elements
// @Accept       json
// @Produce      json
// @Security     BearerAuth
// @Param        id       path      int            true  "블록 ID"
// @Param        request  body      element.Input  true  "블록 내용"
// @Success      200  {object}  common.APIResponse{data=domain.ElementObject}
// @Failure      400  {object}  common.APIResponse
// @Failure      403  {object}  common.APIResponse
// @Failure      404  {object}  common.APIResponse
// @Router       /elements/{id} [put]
func (h *ElementHandler) UpdateElement(c *gin.Context) {
	id, ok := idParam(c)
	if !ok {
		return
	}
	ctx := c.Request.Context()
	member := middleware.GetMember(c)

	var in element.Input
	if err := c.ShouldBindJSON(&in); err != nil {
		common.ErrorResponse(c, http.StatusBadRequest, "Invalid request body", err)
		return
	}

	e, err := h.service.Get(ctx, versioned.Draft, id)
	if err != nil {
		h.fail(c, err)
		return
	}
	ownerCtx, err := h.ownerContext(ctx, e)
	if err != nil {
		h.fail(c, err)
		return
	}
	if !h.perms.CanEdit(ownerCtx, e, member) {
		forbidden(c)
		return
	}
	// omitted parent keeps the element on its page
	if in.ParentPageID == nil {
		in.ParentPageID = e.ParentPageID
	}
	if in.ParentPageID != nil && (e.ParentPageID == nil || *in.ParentPageID != *e.ParentPageID) {
		dest, err := h.pages.FindByID(ctx, *in.ParentPageID)
		if err != nil {
			h.fail(c, err)
			return
		}
		if !h.perms.CanEdit(sitetree.WithController(ctx, dest), e, member) {
			forbidden(c)
			return
		}
	}

	updated, err := h.service.Update(ownerCtx, id, in, member)
	if err != nil {
		h.fail(c, err)
		return
	}
	common.SuccessResponse(c, updated, nil)
}

// PublishElement handles POST /api/elements/:id/publish
// @Summary      콘텐츠 블록 게시
// @Description  draft를 live로 복사하고 이미지도 함께 게시합니다
// @Tags         elements
// @Produce      json
// @Security     BearerAuth
// @Param        id  path  int  true  "블록 ID"
// @Success      200  {object}  common.APIResponse{data=domain.ElementObject}
// @Failure      403  {object}  common.APIResponse
// @Failure      404  {object}  common.APIResponse
// @Router       /elements/{id}/publish [post]
func (h *ElementHandler) PublishElement(c *gin.Context) {
	h.editAction(c, versioned.Draft, func(ctx context.Context, id uint64, member *domain.Member) (interface{}, error) {
		return h.service.Publish(ctx, id, member)
	})
}

// UnpublishElement handles POST /api/elements/:id/unpublish
// @Summary      게시 취소
// @Tags         elements
// @Security     BearerAuth
// @Param        id  path  int  true  "블록 ID"
// @Success      204
// @Failure      403  {object}  common.APIResponse
// @Failure      404  {object}  common.APIResponse
// @Router       /elements/{id}/unpublish [post]
func (h *ElementHandler) UnpublishElement(c *gin.Context) {
	h.editAction(c, versioned.Live, func(ctx context.Context, id uint64, _ *domain.Member) (interface{}, error) {
		return nil, h.service.Unpublish(ctx, id)
	})
}

// RevertElement handles POST /api/elements/:id/revert (discard draft changes)
// @Summary      draft 변경 취소
// @Description  draft를 live 내용으로 되돌립니다
// @Tags         elements
// @Produce      json
// @Security     BearerAuth
// @Param        id  path  int  true  "블록 ID"
// @Success      200  {object}  common.APIResponse{data=domain.ElementObject}
// @Failure      403  {object}  common.APIResponse
// @Failure      404  {object}  common.APIResponse
// @Router       /elements/{id}/revert [post]
func (h *ElementHandler) RevertElement(c *gin.Context) {
	h.editAction(c, versioned.Live, func(ctx context.Context, id uint64, member *domain.Member) (interface{}, error) {
		return h.service.RevertToLive(ctx, id, member)
	})
}

func (h *ElementHandler) editAction(c *gin.Context, stage versioned.Stage, action func(ctx context.Context, id uint64, member *domain.Member) (interface{}, error)) {
	id, ok := idParam(c)
	if !ok {
		return
	}
	ctx := c.Request.Context()
	member := middleware.GetMember(c)

	e, err := h.service.Get(ctx, stage, id)
	if err != nil {
		h.fail(c, err)
		return
	}
	if ctx, err = h.ownerContext(ctx, e); err != nil {
		h.fail(c, err)
		return
	}
	if !h.perms.CanEdit(ctx, e, member) {
		forbidden(c)
		return
	}

	result, err := action(ctx, id, member)
	if err != nil {
		h.fail(c, err)
		return
	}
	if result == nil {
		c.Status(http.StatusNoContent)
		return
	}
	common.SuccessResponse(c, result, nil)
}

// ArchiveElement handles DELETE /api/elements/:id
// @Summary      콘텐츠 블록 보관
// @Description  draft와 live에서 제거하고 버전 기록만 남깁니다
// @Tags         elements
// @Security     BearerAuth
// @Param        id  path  int  true  "블록 ID"
// @Success      204
// @Failure      403  {object}  common.APIResponse
// @Failure      404  {object}  common.APIResponse
// @Router       /elements/{id} [delete]
func (h *ElementHandler) ArchiveElement(c *gin.Context) {
	id, ok := idParam(c)
	if !ok {
		return
	}
	ctx := c.Request.Context()
	member := middleware.GetMember(c)

	e, err := h.service.Find(ctx, id)
	if err != nil {
		h.fail(c, err)
		return
	}
	if ctx, err = h.ownerContext(ctx, e); err != nil {
		h.fail(c, err)
		return
	}
	if !h.perms.CanDelete(ctx, e, member) {
		forbidden(c)
		return
	}
	if err := h.service.Archive(ctx, id, member); err != nil {
		h.fail(c, err)
		return
	}
	c.Status(http.StatusNoContent)
}

// PurgeElement handles DELETE /api/elements/:id/purge. Archived elements can be purged too.
// @Summary      콘텐츠 블록 완전 삭제
// @Description  모든 단계와 버전 기록, 소유한 이미지 파일까지 삭제합니다
// @Tags         elements
// @Security     BearerAuth
// @Param        id  path  int  true  "블록 ID"
// @Success      204
// @Failure      403  {object}  common.APIResponse
// @Failure      404  {object}  common.APIResponse
// @Router       /elements/{id}/purge [delete]
func (h *ElementHandler) PurgeElement(c *gin.Context) {
	id, ok := idParam(c)
	if !ok {
		return
	}
	ctx := c.Request.Context()

	e, err := h.service.Find(ctx, id)
	if err != nil && !errors.Is(err, common.ErrElementNotFound) {
		h.fail(c, err)
		return
	}
	if ctx, err = h.ownerContext(ctx, e); err != nil {
		h.fail(c, err)
		return
	}
	if !h.perms.CanDelete(ctx, e, middleware.GetMember(c)) {
		forbidden(c)
		return
	}
	if err := h.service.Purge(ctx, id); err != nil {
		h.fail(c, err)
		return
	}
	c.Status(http.StatusNoContent)
}

// ListVersions handles GET /api/elements/:id/versions
// @Summary      버전 기록 조회
// @Tags         elements
// @Produce      json
// @Security     BearerAuth
// @Param        id  path  int  true  "블록 ID"
// @Success      200  {object}  common.APIResponse{data=[]versioned.RecordVersion}
// @Failure      403  {object}  common.APIResponse
// @Failure      404  {object}  common.APIResponse
// @Router       /elements/{id}/versions [get]
func (h *ElementHandler) ListVersions(c *gin.Context) {
	id, ok := idParam(c)
	if !ok {
		return
	}
	ctx := c.Request.Context()
	member := middleware.GetMember(c)

	e, err := h.service.Find(ctx, id)
	if err != nil {
		h.fail(c, err)
		return
	}
	if ctx, err = h.ownerContext(ctx, e); err != nil {
		h.fail(c, err)
		return
	}
	if !h.perms.CanView(ctx, e, member) || !h.perms.CanEdit(ctx, e, member) {
		forbidden(c)
		return
	}

	versions, err := h.service.Versions(ctx, id)
	if err != nil {
		h.fail(c, err)
		return
	}
	common.SuccessResponse(c, versions, nil)
}

// UploadImage handles POST /api/elements/images (multipart: file, title)
// @Summary      이미지 업로드
// @Description  블록에 연결할 이미지를 저장소에 올리고 draft 이미지 레코드를 만듭니다
// @Tags         elements
// @Accept       multipart/form-data
// @Produce      json
// @Security     BearerAuth
// @Param        file   formData  file    true   "이미지 파일"
// @Param        title  formData  string  false  "이미지 제목"
// @Success      201  {object}  common.APIResponse
// @Failure      400  {object}  common.APIResponse
// @Failure      403  {object}  common.APIResponse
// @Router       /elements/images [post]
func (h *ElementHandler) UploadImage(c *gin.Context) {
	ctx := c.Request.Context()
	member := middleware.GetMember(c)
	if !h.perms.CanCreate(ctx, member, map[string]interface{}{"upload": true}) {
		forbidden(c)
		return
	}

	file, err := c.FormFile("file")
	if err != nil {
		common.ErrorResponse(c, http.StatusBadRequest, "File is required", err)
		return
	}
	if !imageExtensions[strings.ToLower(filepath.Ext(file.Filename))] {
		common.ErrorResponse(c, http.StatusBadRequest, "Unsupported image type", common.ErrInvalidInput)
		return
	}

	img := &domain.ElementImage{
		Title:    c.PostForm("title"),
		Folder:   h.folder,
		Filename: element.ImageFilename(file.Filename),
		MimeType: file.Header.Get("Content-Type"),
	}
	if img.Title == "" {
		img.Title = strings.TrimSuffix(file.Filename, filepath.Ext(file.Filename))
	}

	src, err := file.Open()
	if err != nil {
		h.fail(c, err)
		return
	}
	defer src.Close()

	if err := h.service.UploadImage(ctx, img, src, file.Size, member); err != nil {
		h.fail(c, err)
		return
	}
	common.CreatedResponse(c, gin.H{"image": img, "url": img.URL()})
}

// CreateLink handles POST /api/elements/links
// @Summary      링크 생성
// @Tags         elements
// @Accept       json
// @Produce      json
// @Security     BearerAuth
// @Param        request  body      domain.ElementLink  true  "링크"
// @Success      201  {object}  common.APIResponse{data=domain.ElementLink}
// @Failure      400  {object}  common.APIResponse
// @Failure      403  {object}  common.APIResponse
// @Router       /elements/links [post]
func (h *ElementHandler) CreateLink(c *gin.Context) {
	ctx := c.Request.Context()
	if !h.perms.CanCreate(ctx, middleware.GetMember(c), map[string]interface{}{"link": true}) {
		forbidden(c)
		return
	}

	var link domain.ElementLink
	if err := c.ShouldBindJSON(&link); err != nil {
		common.ErrorResponse(c, http.StatusBadRequest, "Invalid request body", err)
		return
	}
	link.ID = 0
	if err := h.service.CreateLink(ctx, &link); err != nil {
		h.fail(c, err)
		return
	}
	common.CreatedResponse(c, link)
}

// ownerContext binds the element's own page as the current controller so
// page delegation judges it by that page. A request bound to another page
// gets errPageMismatch; an element whose page is gone keeps the request's.
func (h *ElementHandler) ownerContext(ctx context.Context, e *domain.ElementObject) (context.Context, error) {
	if e == nil || e.ParentPageID == nil {
		return ctx, nil
	}
	if current := element.ResolvePage(ctx); current != nil {
		if current.ID != *e.ParentPageID {
			return ctx, errPageMismatch
		}
		return ctx, nil
	}
	page, err := h.pages.FindByID(ctx, *e.ParentPageID)
	if errors.Is(err, common.ErrPageNotFound) {
		return ctx, nil
	}
	if err != nil {
		return ctx, err
	}
	return sitetree.WithController(ctx, page), nil
}

func (h *ElementHandler) pageURL(ctx context.Context) func(id uint64) string {
	return func(id uint64) string {
		page, err := h.pages.FindByID(ctx, id)
		if err != nil {
			return ""
		}
		return "/" + page.URLSegment
	}
}

func (h *ElementHandler) fail(c *gin.Context, err error) {
	switch {
	case errors.Is(err, common.ErrElementNotFound),
		errors.Is(err, common.ErrNotFound),
		errors.Is(err, versioned.ErrNotFound):
		common.ErrorResponse(c, http.StatusNotFound, "Element not found", err)
	case errors.Is(err, errPageMismatch):
		common.ErrorResponse(c, http.StatusForbidden, "Element belongs to another page", err)
	case errors.Is(err, common.ErrPageNotFound):
		common.ErrorResponse(c, http.StatusBadRequest, "Page not found", err)
	case errors.Is(err, common.ErrInvalidInput):
		common.ErrorResponse(c, http.StatusBadRequest, "Invalid element", err)
	case errors.Is(err, forms.ErrFieldNotFound):
		_ = c.Error(err)
		common.ErrorResponse(c, http.StatusInternalServerError, "Edit form is misconfigured", err)
	default:
		_ = c.Error(err)
		common.ErrorResponse(c, http.StatusInternalServerError, "Internal server error", err)
	}
}

func forbidden(c *gin.Context) {
	common.ErrorResponse(c, http.StatusForbidden, "Permission denied", common.ErrForbidden)
}

func notFound(c *gin.Context) {
	common.ErrorResponse(c, http.StatusNotFound, "Element not found", common.ErrElementNotFound)
}

func idParam(c *gin.Context) (uint64, bool) {
	id, err := ginutil.ParamID(c, "id")
	if err != nil {
		common.ErrorResponse(c, http.StatusBadRequest, "Invalid element id", err)
		return 0, false
	}
	return id, true
}
