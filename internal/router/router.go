package router

import (
	"net/http"
	"strings"

	"darkweb/internal/config"
	"darkweb/internal/handlers"
	"darkweb/internal/middleware"
	"darkweb/internal/models"
	"darkweb/internal/services"
	"darkweb/web"

	"github.com/gin-contrib/secure"
	"github.com/gin-contrib/sessions"
	"github.com/gin-contrib/sessions/cookie"
	"github.com/gin-gonic/gin"
)

const sessionName = "darkweb_session"

// New builds the engine: middleware, templates, static assets and routes.
func New(cfg *config.Config) (*gin.Engine, error) {
	switch strings.ToLower(cfg.GinMode) {
	case "debug":
		gin.SetMode(gin.DebugMode)
	case "test":
		gin.SetMode(gin.TestMode)
	default:
		gin.SetMode(gin.ReleaseMode)
	}

	r := gin.New()
	r.Use(middleware.AccessLog(), middleware.Recovery())

	secureConfig := secure.Config{
		FrameDeny:          true,
		ContentTypeNosniff: true,
		BrowserXssFilter:   true,
		ReferrerPolicy:     "strict-origin-when-cross-origin",
	}
	if cfg.SSL {
		secureConfig.SSLRedirect = true
		secureConfig.STSSeconds = 31536000
		secureConfig.STSIncludeSubdomains = true
	}
	r.Use(secure.New(secureConfig))

	store := cookie.NewStore([]byte(cfg.SessionSecret))
	store.Options(sessions.Options{
		Path:     "/",
		MaxAge:   86400 * 30,
		HttpOnly: true,
		Secure:   cfg.SSL,
		SameSite: http.SameSiteLaxMode,
	})
	r.Use(sessions.Sessions(sessionName, store))

	renderer, err := LoadTemplates()
	if err != nil {
		return nil, err
	}
	r.HTMLRender = renderer
	r.MaxMultipartMemory = int64(cfg.MaxUploadMB) << 20

	r.StaticFS("/static", http.FS(web.Static()))

	r.Use(middleware.LoadUser())
	RegisterRoutes(r, cfg)

	r.NoRoute(func(c *gin.Context) {
		handlers.RenderError(c, http.StatusNotFound, "The page you asked for does not exist.")
	})
	return r, nil
}

func RegisterRoutes(r *gin.Engine, cfg *config.Config) {
	files := services.NewFileStore(cfg.UploadsDir, cfg.MaxUploadMB)

	authHandler := handlers.NewAuthHandler()
	userHandler := handlers.NewUserHandler()
	postHandler := handlers.NewPostHandler(files)
	commentHandler := handlers.NewCommentHandler()
	cleaningHandler := handlers.NewCleaningHandler()
	downloadHandler := handlers.NewDownloadHandler(files)

	limited := middleware.RateLimit(cfg.RateLimitPerMinute)
	login := middleware.AuthRequired()

	// Public
	r.GET("/", postHandler.Index)
	r.GET("/user/:username", userHandler.Profile)
	r.GET("/post_reply/:post_id", postHandler.Show)

	auth := r.Group("/auth")
	{
		auth.GET("/register", authHandler.ShowRegister)
		auth.POST("/register", limited, authHandler.Register)
		auth.GET("/login", authHandler.ShowLogin)
		auth.POST("/login", limited, authHandler.Login)
		auth.GET("/logout", authHandler.Logout)
	}

	// Logged in
	authorized := r.Group("/")
	authorized.Use(login)
	{
		authorized.GET("/edit-profile", userHandler.ShowEditProfile)
		authorized.POST("/edit-profile", userHandler.EditProfile)

		authorized.POST("/post_reply/:post_id", limited, postHandler.Reply)

		authorized.GET("/recommend_post/:post_id", postHandler.LikePost)
		authorized.POST("/recommend_post/:post_id", postHandler.LikePost)
		authorized.GET("/recommend_reply/:reply_id", postHandler.LikeReply)
		authorized.POST("/recommend_reply/:reply_id", postHandler.LikeReply)

		authorized.GET("/write_post_comment/:post_id", commentHandler.ShowWritePostComment)
		authorized.POST("/write_post_comment/:post_id", limited, commentHandler.WritePostComment)
		authorized.GET("/modify_post_comment/:comment_id", commentHandler.ShowModifyPostComment)
		authorized.POST("/modify_post_comment/:comment_id", commentHandler.ModifyPostComment)
		authorized.GET("/delete_post_comment/:comment_id", commentHandler.DeletePostComment)

		authorized.GET("/write_reply_comment/:reply_id", commentHandler.ShowWriteReplyComment)
		authorized.POST("/write_reply_comment/:reply_id", limited, commentHandler.WriteReplyComment)
		authorized.GET("/modify_reply_comment/:comment_id", commentHandler.ShowModifyReplyComment)
		authorized.POST("/modify_reply_comment/:comment_id", commentHandler.ModifyReplyComment)
		authorized.GET("/delete_reply_comment/:comment_id", commentHandler.DeleteReplyComment)
	}

	writers := r.Group("/post_write", login, middleware.PermissionRequired(models.PermWrite))
	{
		writers.GET("", postHandler.ShowCreate)
		writers.POST("", limited, middleware.BodyLimit(uploadBodyLimit(files)), postHandler.Create)
	}

	admin := r.Group("/edit-profile/:id", login, middleware.PermissionRequired(models.PermAdmin))
	{
		admin.GET("", userHandler.ShowEditProfileAdmin)
		admin.POST("", userHandler.EditProfileAdmin)
	}

	cleaning := r.Group("/cleaning", login, middleware.PermissionRequired(models.PermClean))
	{
		cleaning.GET("", cleaningHandler.List)
		cleaning.GET("/enable/:id", cleaningHandler.Enable)
		cleaning.GET("/disable/:id", cleaningHandler.Disable)
	}

	archivists := r.Group("/", login, middleware.PermissionRequired(models.PermFile))
	{
		archivists.GET("/download", downloadHandler.List)
		archivists.GET("/fileDownload", downloadHandler.Download)
		archivists.POST("/fileDownload", downloadHandler.Download)
	}
}

// formOverhead leaves room for the text fields and multipart framing that
// travel with an upload.
const formOverhead = 1 << 20

func uploadBodyLimit(files *services.FileStore) int64 {
	if files.MaxBytes() <= 0 {
		return 0
	}
	return files.MaxBytes() + formOverhead
}
