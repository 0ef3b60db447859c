package server

import (
	"yatube/internal/middleware"
	"yatube/internal/models"
	"yatube/internal/service"
	"yatube/internal/validation"

	"github.com/gofiber/fiber/v2"
)

// postForm is what the create and edit pages redisplay.
type postForm struct {
	Text    string
	GroupID *uint
	Image   string
}

// Index renders the home page: every post, newest first.
func (s *Server) Index(c *fiber.Ctx) error {
	page, err := s.postService.ListPosts(c.UserContext(), c.Query("page"))
	if err != nil {
		return err
	}
	return s.render(c, fiber.StatusOK, "posts/index", fiber.Map{
		"Title": "Latest updates on the site",
		"Posts": page.Posts,
		"Page":  page.Page,
	})
}

// GroupPosts renders one group's posts.
func (s *Server) GroupPosts(c *fiber.Ctx) error {
	listing, err := s.postService.ListGroupPosts(c.UserContext(), c.Params("slug"), c.Query("page"))
	if err != nil {
		return err
	}
	return s.render(c, fiber.StatusOK, "posts/group_list", fiber.Map{
		"Title": "Posts of the group " + listing.Group.Title,
		"Group": listing.Group,
		"Posts": listing.Posts,
		"Page":  listing.Page,
	})
}

// Profile renders an author's posts with follow controls.
func (s *Server) Profile(c *fiber.Ctx) error {
	viewerID, _ := middleware.CurrentUserID(c)
	listing, err := s.postService.ListProfilePosts(c.UserContext(), viewerID, c.Params("username"), c.Query("page"))
	if err != nil {
		return err
	}
	return s.render(c, fiber.StatusOK, "posts/profile", fiber.Map{
		"Title":          "Profile of " + listing.Author.FullName(),
		"Author":         listing.Author,
		"Following":      listing.Following,
		"FollowersCount": listing.FollowersCount,
		"FollowingCount": listing.FollowingCount,
		"PostCount":      listing.PostCount(),
		"Posts":          listing.Posts,
		"Page":           listing.Page,
	})
}

// PostDetail renders a post with its comments.
func (s *Server) PostDetail(c *fiber.Ctx) error {
	postID, err := parseID(c, "id")
	if err != nil {
		return err
	}
	detail, err := s.postService.GetPostDetail(c.UserContext(), postID)
	if err != nil {
		return err
	}
	userID, _ := middleware.CurrentUserID(c)
	return s.render(c, fiber.StatusOK, "posts/post_detail", fiber.Map{
		"Title":           "Post " + detail.Post.String(),
		"Post":            detail.Post,
		"Comments":        detail.Comments,
		"AuthorPostCount": detail.AuthorPostCount,
		"IsAuthor":        detail.Post.IsAuthor(userID),
	})
}

func (s *Server) renderPostForm(c *fiber.Ctx, form postForm, errs validation.FieldErrors, editID uint) error {
	groups, err := s.groupService.ListGroups(c.UserContext())
	if err != nil {
		return err
	}
	title := "New post"
	if editID != 0 {
		title = "Edit post"
	}
	return s.render(c, fiber.StatusOK, "posts/create_post", fiber.Map{
		"Title":  title,
		"Form":   form,
		"Groups": groups,
		"Errors": errs,
		"IsEdit": editID != 0,
		"PostID": editID,
	})
}

// CreatePostForm renders an empty post form.
func (s *Server) CreatePostForm(c *fiber.Ctx) error {
	return s.renderPostForm(c, postForm{}, nil, 0)
}

// CreatePost publishes the submitted post and redirects to the author's profile.
func (s *Server) CreatePost(c *fiber.Ctx) error {
	userID, _ := middleware.CurrentUserID(c)
	form := postForm{
		Text:    c.FormValue("text"),
		GroupID: parseGroupID(c.FormValue("group")),
	}
	upload, err := readImageUpload(c, s.maxUploadBytes())
	if err != nil {
		return err
	}

	_, err = s.postService.CreatePost(c.UserContext(), service.CreatePostInput{
		AuthorID: userID,
		Text:     form.Text,
		GroupID:  form.GroupID,
		Image:    upload,
	})
	if err != nil {
		if fields := validation.Fields(err); fields != nil {
			return s.renderPostForm(c, form, fields, 0)
		}
		return err
	}

	return c.Redirect(profileURL(currentViewer(c).Username), fiber.StatusFound)
}

// EditPostForm renders the form prefilled with the post. RequireOwnership
// has already checked the author.
func (s *Server) EditPostForm(c *fiber.Ctx) error {
	post := c.Locals("post").(*models.Post)
	return s.renderPostForm(c, postForm{Text: post.Text, GroupID: post.GroupID, Image: post.Image}, nil, post.ID)
}

// EditPost saves the post and returns to its page.
func (s *Server) EditPost(c *fiber.Ctx) error {
	post := c.Locals("post").(*models.Post)
	userID, _ := middleware.CurrentUserID(c)
	form := postForm{
		Text:    c.FormValue("text"),
		GroupID: parseGroupID(c.FormValue("group")),
		Image:   post.Image,
	}
	upload, err := readImageUpload(c, s.maxUploadBytes())
	if err != nil {
		return err
	}

	_, err = s.postService.UpdatePost(c.UserContext(), service.UpdatePostInput{
		UserID:     userID,
		PostID:     post.ID,
		Text:       form.Text,
		GroupID:    form.GroupID,
		Image:      upload,
		ClearImage: c.FormValue("image-clear") != "",
	})
	if err != nil {
		if fields := validation.Fields(err); fields != nil {
			return s.renderPostForm(c, form, fields, post.ID)
		}
		return err
	}

	return c.Redirect(postURL(post.ID), fiber.StatusFound)
}

// DeletePost removes the post and returns to the author's profile.
func (s *Server) DeletePost(c *fiber.Ctx) error {
	post := c.Locals("post").(*models.Post)
	userID, _ := middleware.CurrentUserID(c)
	if _, err := s.postService.DeletePost(c.UserContext(), userID, post.ID); err != nil {
		return err
	}
	return c.Redirect(profileURL(currentViewer(c).Username), fiber.StatusFound)
}
