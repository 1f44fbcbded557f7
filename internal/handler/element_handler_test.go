package handler_test

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/damoang/angple-elements/internal/common"
	"github.com/damoang/angple-elements/internal/config"
	"github.com/damoang/angple-elements/internal/domain"
	"github.com/damoang/angple-elements/internal/element"
	"github.com/damoang/angple-elements/internal/forms"
	"github.com/damoang/angple-elements/internal/handler"
	"github.com/damoang/angple-elements/internal/migration"
	"github.com/damoang/angple-elements/internal/permission"
	"github.com/damoang/angple-elements/internal/plugin"
	"github.com/damoang/angple-elements/internal/repository"
	"github.com/damoang/angple-elements/internal/routes"
	"github.com/damoang/angple-elements/internal/schema"
	"github.com/damoang/angple-elements/internal/sitetree"
	"github.com/damoang/angple-elements/pkg/i18n"
	"github.com/damoang/angple-elements/pkg/jwt"
	"github.com/damoang/angple-elements/pkg/storage"
	"github.com/damoang/angple-elements/plugins/readonly"
	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/suite"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
)

type ElementHandlerSuite struct {
	suite.Suite

	db      *gorm.DB
	router  *gin.Engine
	hooks   *plugin.HookManager
	tokens  *jwt.Manager
	members repository.MemberRepository
	pages   repository.PageRepository

	author string
	reader string
}

type envelope struct {
	Success bool              `json:"success"`
	Data    json.RawMessage   `json:"data"`
	Meta    *common.Meta      `json:"meta"`
	Error   *common.ErrorInfo `json:"error"`
}

func TestElementHandlerSuite(t *testing.T) {
	suite.Run(t, new(ElementHandlerSuite))
}

func (s *ElementHandlerSuite) SetupTest() {
	gin.SetMode(gin.TestMode)

	db, err := gorm.Open(sqlite.Open(":memory:"), &gorm.Config{})
	s.Require().NoError(err)
	sqlDB, err := db.DB()
	s.Require().NoError(err)
	sqlDB.SetMaxOpenConns(1)
	s.Require().NoError(migration.Run(db))
	s.db = db

	s.members = repository.NewMemberRepository(db)
	s.pages = repository.NewPageRepository(db)
	s.tokens = jwt.NewManager("test-secret", 3600)
	s.author = s.memberToken("author@example.com", "content-authors")
	s.reader = s.memberToken("reader@example.com", "")

	checker := permission.NewChecker(s.members, nil, zerolog.Nop())
	policy := sitetree.NewPolicy(checker, s.pages)
	s.hooks = plugin.NewHookManager(plugin.NopLogger{})

	schemas := schema.NewRegistry()
	schemas.MustRegister(element.Schema())
	bundle := i18n.NewBundle(i18n.LocaleEn)
	for locale, messages := range i18n.DefaultMessages() {
		bundle.LoadMessages(locale, messages)
	}
	builder := forms.NewBuilder(schemas, s.hooks, bundle, nil)
	element.RegisterFields(builder, "")

	svc := element.NewService(
		element.NewElementStore(db),
		element.NewImageStore(db),
		repository.NewLinkRepository(db),
		builder,
		s.hooks,
		zerolog.Nop(),
	).WithFiles(storage.NewLocalStorage(s.T().TempDir(), "/assets"))
	perms := element.NewPermissions(s.hooks, checker, func(p *domain.Page) element.PageAccess {
		return policy.For(p)
	})

	cfg := config.Default().Elements
	s.router = gin.New()
	routes.Setup(s.router, handler.NewElementHandler(svc, perms, s.pages, cfg), routes.Deps{
		JWT:     s.tokens,
		Members: s.members,
		Pages:   s.pages,
	})
}

func (s *ElementHandlerSuite) memberToken(email, groupCode string) string {
	ctx := context.Background()
	m := &domain.Member{Email: email}
	s.Require().NoError(s.members.Create(ctx, m))
	if groupCode != "" {
		var g domain.Group
		s.Require().NoError(s.db.Where("code = ?", groupCode).First(&g).Error)
		s.Require().NoError(s.members.AddToGroup(ctx, m.ID, g.ID))
	}
	token, err := s.tokens.GenerateToken(m.ID, email)
	s.Require().NoError(err)
	return token
}

func (s *ElementHandlerSuite) do(method, path, token string, body interface{}, headers ...string) (*httptest.ResponseRecorder, envelope) {
	var reader *bytes.Reader
	if body != nil {
		raw, err := json.Marshal(body)
		s.Require().NoError(err)
		reader = bytes.NewReader(raw)
	} else {
		reader = bytes.NewReader(nil)
	}
	req := httptest.NewRequest(method, path, reader)
	req.Header.Set("Content-Type", "application/json")
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	for i := 0; i+1 < len(headers); i += 2 {
		req.Header.Set(headers[i], headers[i+1])
	}
	return s.serve(req)
}

func (s *ElementHandlerSuite) serve(req *http.Request) (*httptest.ResponseRecorder, envelope) {
	w := httptest.NewRecorder()
	s.router.ServeHTTP(w, req)

	var env envelope
	if w.Body.Len() > 0 {
		s.Require().NoError(json.Unmarshal(w.Body.Bytes(), &env), w.Body.String())
	}
	return w, env
}

func (s *ElementHandlerSuite) create(in map[string]interface{}, headers ...string) domain.ElementObject {
	w, env := s.do(http.MethodPost, "/api/elements", s.author, in, headers...)
	s.Require().Equal(http.StatusCreated, w.Code, w.Body.String())
	var e domain.ElementObject
	s.Require().NoError(json.Unmarshal(env.Data, &e))
	return e
}

func (s *ElementHandlerSuite) TestHealth() {
	w := httptest.NewRecorder()
	s.router.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/health", nil))
	s.Equal(http.StatusOK, w.Code)
}

func (s *ElementHandlerSuite) TestSwaggerUI() {
	w := httptest.NewRecorder()
	s.router.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/swagger/index.html", nil))
	s.Equal(http.StatusOK, w.Code)
	s.Contains(w.Body.String(), "swagger")
}

func (s *ElementHandlerSuite) TestAnonymousCannotWrite() {
	w, env := s.do(http.MethodPost, "/api/elements", "", map[string]interface{}{"title": "x"})
	s.Equal(http.StatusForbidden, w.Code)
	s.Equal("FORBIDDEN", env.Error.Code)

	// logged in without CMS_ACCESS
	w, _ = s.do(http.MethodPost, "/api/elements", s.reader, map[string]interface{}{"title": "x"})
	s.Equal(http.StatusForbidden, w.Code)
}

func (s *ElementHandlerSuite) TestInvalidToken() {
	w, env := s.do(http.MethodGet, "/api/elements", "not-a-token", nil)
	s.Equal(http.StatusUnauthorized, w.Code)
	s.False(env.Success)
}

func (s *ElementHandlerSuite) TestLifecycle() {
	e := s.create(map[string]interface{}{"name": "hero", "title": "Welcome", "show_title": true, "content": "<p>hi</p>"})
	path := fmt.Sprintf("/api/elements/%d", e.ID)

	// not published yet
	w, _ := s.do(http.MethodGet, path, s.author, nil)
	s.Equal(http.StatusNotFound, w.Code)

	// no current page: view falls back to CMS_ACCESS, hidden like a missing id
	w, _ = s.do(http.MethodGet, path+"?stage=draft", "", nil)
	s.Equal(http.StatusNotFound, w.Code)
	w, _ = s.do(http.MethodGet, "/api/elements/9999", "", nil)
	s.Equal(http.StatusNotFound, w.Code)

	// viewable but not editable
	w, _ = s.do(http.MethodGet, path+"?stage=draft", s.reader, nil, "X-Page-ID", s.publicPage())
	s.Equal(http.StatusForbidden, w.Code)

	w, env := s.do(http.MethodGet, path+"?stage=draft", s.author, nil)
	s.Require().Equal(http.StatusOK, w.Code)
	var view element.View
	s.Require().NoError(json.Unmarshal(env.Data, &view))
	s.Equal("Welcome", view.DisplayTitle)
	s.False(view.Published)

	w, _ = s.do(http.MethodPost, path+"/publish", s.author, nil)
	s.Require().Equal(http.StatusOK, w.Code, w.Body.String())

	w, env = s.do(http.MethodGet, path, s.author, nil)
	s.Require().Equal(http.StatusOK, w.Code)
	s.Require().NoError(json.Unmarshal(env.Data, &view))
	s.True(view.Published)
	s.Equal("<p>hi</p>", view.Content)

	w, _ = s.do(http.MethodGet, "/api/elements", "", nil)
	s.Equal(http.StatusForbidden, w.Code)

	w, env = s.do(http.MethodGet, "/api/elements", s.author, nil)
	s.Require().Equal(http.StatusOK, w.Code)
	var rows []map[string]interface{}
	s.Require().NoError(json.Unmarshal(env.Data, &rows))
	s.Require().Len(rows, 1)
	s.Equal("hero", rows[0]["Name"])
	s.Equal("live", env.Meta.Stage)

	// draft edits stay off the live site until revert or publish
	w, _ = s.do(http.MethodPut, path, s.author, map[string]interface{}{"name": "hero", "title": "Changed"})
	s.Require().Equal(http.StatusOK, w.Code)
	w, env = s.do(http.MethodGet, path, s.author, nil)
	s.Require().NoError(json.Unmarshal(env.Data, &view))
	s.Equal("Welcome", view.Title)

	w, _ = s.do(http.MethodPost, path+"/revert", s.author, nil)
	s.Require().Equal(http.StatusOK, w.Code, w.Body.String())
	w, env = s.do(http.MethodGet, path+"?stage=draft", s.author, nil)
	s.Require().NoError(json.Unmarshal(env.Data, &view))
	s.Equal("Welcome", view.Title)

	w, env = s.do(http.MethodGet, path+"/versions", s.author, nil)
	s.Require().Equal(http.StatusOK, w.Code)
	s.Contains(string(env.Data), `"was_published":true`)

	w, _ = s.do(http.MethodDelete, path, s.author, nil)
	s.Equal(http.StatusNoContent, w.Code)
	w, _ = s.do(http.MethodGet, path, s.author, nil)
	s.Equal(http.StatusNotFound, w.Code)

	w, _ = s.do(http.MethodDelete, path+"/purge", s.author, nil)
	s.Equal(http.StatusNoContent, w.Code)
	w, _ = s.do(http.MethodDelete, path+"/purge", s.author, nil)
	s.Equal(http.StatusNotFound, w.Code)
}

func (s *ElementHandlerSuite) TestValidation() {
	w, env := s.do(http.MethodPost, "/api/elements", s.author, map[string]interface{}{"title": strings.Repeat("a", 256)})
	s.Equal(http.StatusBadRequest, w.Code)
	s.Equal("BAD_REQUEST", env.Error.Code)

	w, _ = s.do(http.MethodPost, "/api/elements", s.author, map[string]interface{}{"image_id": 99})
	s.Equal(http.StatusBadRequest, w.Code)

	w, _ = s.do(http.MethodGet, "/api/elements/abc", "", nil)
	s.Equal(http.StatusBadRequest, w.Code)

	w, _ = s.do(http.MethodGet, "/api/elements?filter[Nope]=x", s.author, nil)
	s.Equal(http.StatusBadRequest, w.Code)
}

func (s *ElementHandlerSuite) TestEditFormIsLocalized() {
	e := s.create(map[string]interface{}{"title": "Welcome"})

	w, env := s.do(http.MethodGet, fmt.Sprintf("/api/elements/%d/fields", e.ID), s.author, nil, "Accept-Language", "ko-KR,ko;q=0.9")
	s.Require().Equal(http.StatusOK, w.Code, w.Body.String())
	s.Equal("ko", w.Header().Get("Content-Language"))

	var body struct {
		Fields []map[string]interface{} `json:"fields"`
	}
	s.Require().NoError(json.Unmarshal(env.Data, &body))
	var names []string
	for _, f := range body.Fields {
		names = append(names, f["name"].(string))
	}
	s.Equal([]string{"Name", element.TitleGroupName, "ElementLinkID", "Image", "Content"}, names)

	w, _ = s.do(http.MethodGet, fmt.Sprintf("/api/elements/%d/fields", e.ID), s.reader, nil)
	s.Equal(http.StatusForbidden, w.Code)

	w, _ = s.do(http.MethodGet, "/api/elements/fields", s.author, nil)
	s.Equal(http.StatusOK, w.Code)
}

func (s *ElementHandlerSuite) TestPageDelegation() {
	ctx := context.Background()
	members := &domain.Page{Title: "Members", URLSegment: "members", CanViewType: domain.AccessLoggedInUsers, CanEditType: domain.AccessInherit}
	s.Require().NoError(s.pages.Create(ctx, members))
	pageID := fmt.Sprint(members.ID)

	e := s.create(map[string]interface{}{"title": "Inside"}, "X-Page-ID", pageID)
	s.Require().NotNil(e.ParentPageID)
	s.Equal(members.ID, *e.ParentPageID)

	path := fmt.Sprintf("/api/elements/%d", e.ID)
	w, _ := s.do(http.MethodPost, path+"/publish", s.author, nil, "X-Page-ID", pageID)
	s.Require().Equal(http.StatusOK, w.Code, w.Body.String())

	w, _ = s.do(http.MethodGet, path, "", nil, "X-Page-ID", pageID)
	s.Equal(http.StatusNotFound, w.Code)

	w, _ = s.do(http.MethodGet, path, s.reader, nil, "X-Page-ID", pageID)
	s.Equal(http.StatusOK, w.Code)

	// without X-Page-ID the element's own page decides
	w, _ = s.do(http.MethodGet, path, s.reader, nil)
	s.Equal(http.StatusOK, w.Code)
	w, _ = s.do(http.MethodGet, path, "", nil)
	s.Equal(http.StatusNotFound, w.Code)

	w, env := s.do(http.MethodGet, "/api/elements", s.reader, nil, "X-Page-ID", pageID)
	s.Require().Equal(http.StatusOK, w.Code)
	s.Equal(int64(1), env.Meta.Total)

	w, _ = s.do(http.MethodGet, path, "", nil, "X-Page-ID", "999")
	s.Equal(http.StatusNotFound, w.Code)
	w, _ = s.do(http.MethodGet, path, "", nil, "X-Page-ID", "zero")
	s.Equal(http.StatusBadRequest, w.Code)
}

func (s *ElementHandlerSuite) publicPage() string {
	p := &domain.Page{Title: "Public", URLSegment: "public", CanViewType: domain.AccessAnyone, CanEditType: domain.AccessLoggedInUsers}
	s.Require().NoError(s.pages.Create(context.Background(), p))
	return fmt.Sprint(p.ID)
}

func (s *ElementHandlerSuite) TestElementIsJudgedByItsOwnPage() {
	ctx := context.Background()
	board := &domain.Page{Title: "Board", URLSegment: "board", CanViewType: domain.AccessOnlyTheseUsers, CanEditType: domain.AccessOnlyTheseUsers}
	s.Require().NoError(s.pages.Create(ctx, board))
	boardID := fmt.Sprint(board.ID)
	public := s.publicPage()
	// CMS access without SITETREE_EDIT_ALL
	editor := s.memberToken("editor@example.com", "publishers")

	e := s.create(map[string]interface{}{"title": "Board minutes", "content": "confidential"}, "X-Page-ID", boardID)
	path := fmt.Sprintf("/api/elements/%d", e.ID)
	w, _ := s.do(http.MethodPost, path+"/publish", s.author, nil, "X-Page-ID", boardID)
	s.Require().Equal(http.StatusOK, w.Code, w.Body.String())

	// an unrelated public page does not unlock the board's element
	w, env := s.do(http.MethodGet, path, "", nil, "X-Page-ID", public)
	s.Equal(http.StatusNotFound, w.Code)
	s.NotContains(string(env.Data), "confidential")
	w, _ = s.do(http.MethodGet, path, "", nil, "X-Page-ID", boardID)
	s.Equal(http.StatusNotFound, w.Code)
	w, _ = s.do(http.MethodGet, path, "", nil)
	s.Equal(http.StatusNotFound, w.Code)

	// the editor may edit the public page but not the board
	w, _ = s.do(http.MethodPut, path, editor, map[string]interface{}{"title": "Edited"}, "X-Page-ID", public)
	s.Equal(http.StatusForbidden, w.Code)
	w, _ = s.do(http.MethodPut, path, editor, map[string]interface{}{"title": "Edited"})
	s.Equal(http.StatusForbidden, w.Code)
	w, _ = s.do(http.MethodPost, path+"/unpublish", editor, nil, "X-Page-ID", public)
	s.Equal(http.StatusForbidden, w.Code)
	w, _ = s.do(http.MethodDelete, path, editor, nil, "X-Page-ID", public)
	s.Equal(http.StatusForbidden, w.Code)
	w, _ = s.do(http.MethodGet, path+"/versions", editor, nil, "X-Page-ID", public)
	s.Equal(http.StatusForbidden, w.Code)

	other := s.create(map[string]interface{}{"title": "Notice"}, "X-Page-ID", public)
	otherPath := fmt.Sprintf("/api/elements/%d", other.ID)
	w, _ = s.do(http.MethodPut, otherPath, editor, map[string]interface{}{"title": "Notice!"})
	s.Equal(http.StatusOK, w.Code, w.Body.String())

	// moving onto the board needs edit rights there
	w, _ = s.do(http.MethodPut, otherPath, editor, map[string]interface{}{"title": "Notice", "parent_page_id": board.ID})
	s.Equal(http.StatusForbidden, w.Code)
	w, _ = s.do(http.MethodPut, otherPath, editor, map[string]interface{}{"title": "Notice", "parent_page_id": 4242})
	s.Equal(http.StatusBadRequest, w.Code)
}

func (s *ElementHandlerSuite) TestReadOnlyExtension() {
	manager := plugin.NewManager(s.hooks, nil)
	s.Require().NoError(manager.Enable(readonly.Name, nil))

	w, _ := s.do(http.MethodPost, "/api/elements", s.author, map[string]interface{}{"title": "blocked"})
	s.Equal(http.StatusForbidden, w.Code)

	s.Require().NoError(manager.Disable(readonly.Name))
	w, _ = s.do(http.MethodPost, "/api/elements", s.author, map[string]interface{}{"title": "allowed"})
	s.Equal(http.StatusCreated, w.Code)
}

func (s *ElementHandlerSuite) TestUploadImageAndLink() {
	var buf bytes.Buffer
	mw := multipart.NewWriter(&buf)
	part, err := mw.CreateFormFile("file", "Hero.PNG")
	s.Require().NoError(err)
	_, err = part.Write([]byte("\x89PNG"))
	s.Require().NoError(err)
	s.Require().NoError(mw.WriteField("title", "Hero"))
	s.Require().NoError(mw.Close())

	req := httptest.NewRequest(http.MethodPost, "/api/elements/images", &buf)
	req.Header.Set("Content-Type", mw.FormDataContentType())
	req.Header.Set("Authorization", "Bearer "+s.author)
	w, env := s.serve(req)
	s.Require().Equal(http.StatusCreated, w.Code, w.Body.String())

	var uploaded struct {
		Image domain.ElementImage `json:"image"`
		URL   string              `json:"url"`
	}
	s.Require().NoError(json.Unmarshal(env.Data, &uploaded))
	s.True(strings.HasPrefix(uploaded.URL, "/assets/Uploads/Elements/Objects/"))
	s.True(strings.HasSuffix(uploaded.URL, ".png"))

	w, env = s.do(http.MethodPost, "/api/elements/links", s.author, map[string]interface{}{"title": "More", "url": "https://example.com"})
	s.Require().Equal(http.StatusCreated, w.Code, w.Body.String())
	var link domain.ElementLink
	s.Require().NoError(json.Unmarshal(env.Data, &link))

	e := s.create(map[string]interface{}{"title": "With media", "image_id": uploaded.Image.ID, "element_link_id": link.ID})
	w, env = s.do(http.MethodGet, fmt.Sprintf("/api/elements/%d?stage=draft", e.ID), s.author, nil)
	s.Require().Equal(http.StatusOK, w.Code)
	var view element.View
	s.Require().NoError(json.Unmarshal(env.Data, &view))
	s.Equal(uploaded.URL, view.ImageURL)
	s.Equal("https://example.com", view.LinkHref)

	// unsupported type
	buf.Reset()
	mw = multipart.NewWriter(&buf)
	part, _ = mw.CreateFormFile("file", "notes.txt")
	_, _ = part.Write([]byte("text"))
	_ = mw.Close()
	req = httptest.NewRequest(http.MethodPost, "/api/elements/images", &buf)
	req.Header.Set("Content-Type", mw.FormDataContentType())
	req.Header.Set("Authorization", "Bearer "+s.author)
	w, _ = s.serve(req)
	s.Equal(http.StatusBadRequest, w.Code)
}
