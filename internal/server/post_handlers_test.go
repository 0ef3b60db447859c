package server

import (
	"bytes"
	"fmt"
	"image"
	"image/color"
	"image/png"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"net/url"
	"os"
	"path/filepath"
	"testing"
	"time"

	"yatube/internal/models"
	"yatube/internal/testutil"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestIndex_PaginatesByTen(t *testing.T) {
	env := newTestEnv(t)
	author := testutil.CreateUser(t, env.db, "leo")
	base := time.Now().Add(-time.Hour)
	for i := 0; i < 13; i++ {
		testutil.CreatePostAt(t, env.db, author, fmt.Sprintf("post number %d", i), base.Add(time.Duration(i)*time.Minute))
	}

	first := readBody(t, env.get("/"))
	assert.Equal(t, 10, countPostCards(first))
	assert.Contains(t, first, "post number 12")
	assert.NotContains(t, first, "post number 2<")

	second := readBody(t, env.get("/?page=2"))
	assert.Equal(t, 3, countPostCards(second))
	assert.Contains(t, second, "post number 0")

	// out of range falls back to the last page
	last := readBody(t, env.get("/?page=99"))
	assert.Equal(t, 3, countPostCards(last))
}

func TestListings_PaginateGroupAndProfile(t *testing.T) {
	env := newTestEnv(t)
	author := testutil.CreateUser(t, env.db, "leo")
	group := testutil.CreateGroup(t, env.db, "cats")
	for i := 0; i < 13; i++ {
		testutil.CreatePost(t, env.db, author, group, fmt.Sprintf("cat post %d", i))
	}

	for _, path := range []string{"/group/cats/", "/profile/leo/"} {
		assert.Equal(t, 10, countPostCards(readBody(t, env.get(path))), path)
		assert.Equal(t, 3, countPostCards(readBody(t, env.get(path+"?page=2"))), path)
	}
}

func TestPostWithGroup_AppearsOnlyWhereExpected(t *testing.T) {
	env := newTestEnv(t)
	author := testutil.CreateUser(t, env.db, "leo")
	other := testutil.CreateUser(t, env.db, "mia")
	cats := testutil.CreateGroup(t, env.db, "cats")
	testutil.CreateGroup(t, env.db, "dogs")
	testutil.CreatePost(t, env.db, author, cats, "grouped post text")

	assert.Contains(t, readBody(t, env.get("/")), "grouped post text")
	assert.Contains(t, readBody(t, env.get("/group/cats/")), "grouped post text")
	assert.Contains(t, readBody(t, env.get("/profile/leo/")), "grouped post text")

	assert.NotContains(t, readBody(t, env.get("/group/dogs/")), "grouped post text")
	assert.NotContains(t, readBody(t, env.get("/profile/"+other.Username+"/")), "grouped post text")
}

func TestProfile_ShowsCountsAndFollowButton(t *testing.T) {
	env := newTestEnv(t)
	author := testutil.CreateUser(t, env.db, "leo")
	reader := testutil.CreateUser(t, env.db, "mia")
	testutil.CreatePost(t, env.db, author, nil, "one")
	testutil.CreatePost(t, env.db, author, nil, "two")

	body := readBody(t, env.get("/profile/leo/", asUser(env.tokenFor(reader))))
	assert.Contains(t, body, "Total posts: 2")
	assert.Contains(t, body, "/profile/leo/follow/")

	testutil.CreateFollow(t, env.db, reader, author)
	body = readBody(t, env.get("/profile/leo/", asUser(env.tokenFor(reader))))
	assert.Contains(t, body, "/profile/leo/unfollow/")
	assert.Contains(t, body, "Followers: 1")

	// no follow controls on your own profile
	body = readBody(t, env.get("/profile/leo/", asUser(env.tokenFor(author))))
	assert.NotContains(t, body, "/profile/leo/follow/")
}

func TestPostDetail(t *testing.T) {
	env := newTestEnv(t)
	author := testutil.CreateUser(t, env.db, "leo")
	post := testutil.CreatePost(t, env.db, author, nil, "line one\nline two <b>")

	body := readBody(t, env.get(postURL(post.ID)))
	assert.Contains(t, body, "line one<br>line two &lt;b&gt;")
	assert.Contains(t, body, "Total posts by the author: <span>1</span>")
	assert.NotContains(t, body, "edit post")

	body = readBody(t, env.get(postURL(post.ID), asUser(env.tokenFor(author))))
	assert.Contains(t, body, "edit post")
}

func TestCreatePost_AnonymousGoesThroughLogin(t *testing.T) {
	env := newTestEnv(t)
	testutil.CreateUser(t, env.db, "leo")

	resp := env.get("/create/")
	assertRedirect(t, resp, "/auth/login/?next=%2Fcreate%2F")

	resp = env.postForm("/auth/login/", url.Values{
		"username": {"leo"},
		"password": {testutil.TestPassword},
		"next":     {"/create/"},
	})
	assertRedirect(t, resp, "/create/")

	var session *http.Cookie
	for _, c := range resp.Cookies() {
		if c.Name == "access_token" {
			session = c
		}
	}
	require.NotNil(t, session)
	assert.True(t, session.HttpOnly)

	resp = env.get("/create/", asUser(session.Value))
	assert.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Contains(t, readBody(t, resp), "New post")
}

func TestCreatePost(t *testing.T) {
	env := newTestEnv(t)
	author := testutil.CreateUser(t, env.db, "leo")
	group := testutil.CreateGroup(t, env.db, "cats")
	token := env.tokenFor(author)

	resp := env.postForm("/create/", url.Values{
		"text":  {"brand new post"},
		"group": {fmt.Sprint(group.ID)},
	}, asUser(token))
	assertRedirect(t, resp, "/profile/leo/")

	var post models.Post
	require.NoError(t, env.db.First(&post).Error)
	assert.Equal(t, "brand new post", post.Text)
	assert.Equal(t, author.ID, post.AuthorID)
	require.NotNil(t, post.GroupID)
	assert.Equal(t, group.ID, *post.GroupID)
}

func TestCreatePost_InvalidFormIsRedisplayed(t *testing.T) {
	env := newTestEnv(t)
	author := testutil.CreateUser(t, env.db, "leo")

	resp := env.postForm("/create/", url.Values{"text": {"   "}, "group": {"12345"}}, asUser(env.tokenFor(author)))
	assert.Equal(t, http.StatusOK, resp.StatusCode)
	body := readBody(t, resp)
	assert.Contains(t, body, "This field is required.")
	assert.Contains(t, body, "Select a valid choice.")

	var count int64
	env.db.Model(&models.Post{}).Count(&count)
	assert.Zero(t, count)
}

func TestCreatePost_WithImage(t *testing.T) {
	env := newTestEnv(t)
	author := testutil.CreateUser(t, env.db, "leo")

	img := image.NewRGBA(image.Rect(0, 0, 4, 4))
	img.Set(1, 1, color.RGBA{R: 255, A: 255})
	var png64 bytes.Buffer
	require.NoError(t, png.Encode(&png64, img))

	var body bytes.Buffer
	w := multipart.NewWriter(&body)
	require.NoError(t, w.WriteField("text", "post with a picture"))
	part, err := w.CreateFormFile("image", "small.png")
	require.NoError(t, err)
	_, err = part.Write(png64.Bytes())
	require.NoError(t, err)
	require.NoError(t, w.Close())

	req := httptest.NewRequest(http.MethodPost, "/create/", &body)
	req.Header.Set("Content-Type", w.FormDataContentType())
	resp := env.do(req, asUser(env.tokenFor(author)))
	assertRedirect(t, resp, "/profile/leo/")

	var post models.Post
	require.NoError(t, env.db.First(&post).Error)
	require.NotEmpty(t, post.Image)
	_, err = os.Stat(filepath.Join(env.srv.imageService.MediaDir(), filepath.FromSlash(post.Image)))
	assert.NoError(t, err)

	page := readBody(t, env.get(postURL(post.ID)))
	assert.Contains(t, page, "/media/"+post.Image)
}

func TestEditPost_OnlyAuthor(t *testing.T) {
	env := newTestEnv(t)
	author := testutil.CreateUser(t, env.db, "leo")
	other := testutil.CreateUser(t, env.db, "mia")
	post := testutil.CreatePost(t, env.db, author, nil, "original text")
	editURL := fmt.Sprintf("/posts/%d/edit/", post.ID)

	assertRedirect(t, env.get(editURL), "/auth/login/?next="+url.QueryEscape(editURL))
	assertRedirect(t, env.get(editURL, asUser(env.tokenFor(other))), postURL(post.ID))

	resp := env.postForm(editURL, url.Values{"text": {"hijacked"}}, asUser(env.tokenFor(other)))
	assertRedirect(t, resp, postURL(post.ID))

	resp = env.get(editURL, asUser(env.tokenFor(author)))
	assert.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Contains(t, readBody(t, resp), "original text")

	resp = env.postForm(editURL, url.Values{"text": {"edited text"}}, asUser(env.tokenFor(author)))
	assertRedirect(t, resp, postURL(post.ID))

	var saved models.Post
	require.NoError(t, env.db.First(&saved, post.ID).Error)
	assert.Equal(t, "edited text", saved.Text)
}

func TestDeletePost(t *testing.T) {
	env := newTestEnv(t)
	author := testutil.CreateUser(t, env.db, "leo")
	other := testutil.CreateUser(t, env.db, "mia")
	post := testutil.CreatePost(t, env.db, author, nil, "")
	deleteURL := fmt.Sprintf("/posts/%d/delete/", post.ID)

	assertRedirect(t, env.postForm(deleteURL, nil, asUser(env.tokenFor(other))), postURL(post.ID))
	assertRedirect(t, env.postForm(deleteURL, nil, asUser(env.tokenFor(author))), "/profile/leo/")

	var count int64
	env.db.Model(&models.Post{}).Count(&count)
	assert.Zero(t, count)
}

func TestIndex_CachedUntilCleared(t *testing.T) {
	env := newTestEnv(t)
	author := testutil.CreateUser(t, env.db, "leo")
	testutil.CreatePost(t, env.db, author, nil, "first cached post")

	resp := env.get("/")
	assert.Equal(t, "MISS", resp.Header.Get("X-Cache"))
	assert.Contains(t, readBody(t, resp), "first cached post")

	testutil.CreatePost(t, env.db, author, nil, "second fresh post")

	resp = env.get("/")
	assert.Equal(t, "HIT", resp.Header.Get("X-Cache"))
	assert.NotContains(t, readBody(t, resp), "second fresh post")

	admin := testutil.CreateUser(t, env.db, "boss")
	require.NoError(t, env.db.Model(admin).Update("is_admin", true).Error)
	resp = env.postForm("/admin/cache/clear", nil, withBearer(env.tokenFor(admin)))
	assert.Equal(t, http.StatusNoContent, resp.StatusCode)

	resp = env.get("/")
	assert.Equal(t, "MISS", resp.Header.Get("X-Cache"))
	assert.Contains(t, readBody(t, resp), "second fresh post")
}

func TestIndex_CacheExpires(t *testing.T) {
	env := newTestEnv(t)
	author := testutil.CreateUser(t, env.db, "leo")

	env.get("/")
	testutil.CreatePost(t, env.db, author, nil, "appears after expiry")
	assert.NotContains(t, readBody(t, env.get("/")), "appears after expiry")

	env.mr.FastForward(21 * time.Second)
	assert.Contains(t, readBody(t, env.get("/")), "appears after expiry")
}

func TestClearPageCache_RequiresAdmin(t *testing.T) {
	env := newTestEnv(t)
	user := testutil.CreateUser(t, env.db, "leo")

	resp := env.postForm("/admin/cache/clear", nil)
	assert.Equal(t, http.StatusUnauthorized, resp.StatusCode)

	resp = env.postForm("/admin/cache/clear", nil, withBearer(env.tokenFor(user)))
	assert.Equal(t, http.StatusForbidden, resp.StatusCode)
}
