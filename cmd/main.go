package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"fileinbox-service/internal/MinIO"
	"fileinbox-service/internal/config"
	"fileinbox-service/internal/handler/fileHandler"
	"fileinbox-service/internal/handler/folderHandler"
	"fileinbox-service/internal/handler/linkHandler"
	"fileinbox-service/internal/handler/workspaceHandler"
	"fileinbox-service/internal/repository/fileRepo"
	"fileinbox-service/internal/repository/folderRepo"
	"fileinbox-service/internal/repository/linkRepo"
	"fileinbox-service/internal/repository/otpRepo"
	"fileinbox-service/internal/repository/permissionRepo"
	"fileinbox-service/internal/repository/userRepo"
	"fileinbox-service/internal/repository/workspaceRepo"
	"fileinbox-service/internal/service/fileService"
	"fileinbox-service/internal/service/folderService"
	"fileinbox-service/internal/service/linkService"
	"fileinbox-service/internal/service/permissionService"
	"fileinbox-service/internal/service/quotaService"
	"fileinbox-service/internal/service/workspaceService"
	"fileinbox-service/pkg/database/postgres"
	"fileinbox-service/pkg/database/redis"
	"fileinbox-service/pkg/logger"
	"fileinbox-service/pkg/middleware"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

func main() {
	ctx := context.Background()

	ctx, _ = logger.New(ctx)

	ctx, stop := signal.NotifyContext(ctx, os.Interrupt, syscall.SIGTERM)
	defer stop()

	cfg, err := config.New()
	if err != nil {
		logger.GetLogger(ctx).Fatal("Failed to load config", zap.Error(err))
	}

	pool, err := postgres.New(ctx, cfg.Postgres)
	if err != nil {
		logger.GetLogger(ctx).Fatal("Failed to connect to database", zap.Error(err))
	}
	defer pool.Close()

	redisClient := redis.New(cfg.Redis)
	if err := redisClient.Ping(ctx).Err(); err != nil {
		logger.GetLogger(ctx).Fatal("cannot connect to Redis", zap.Error(err))
	}

	minIO := MinIO.New(cfg.MinIO)
	if minIO == nil {
		logger.GetLogger(ctx).Fatal("cannot connect to MinIO")
	}

	users := userRepo.New(pool)
	workspaces := workspaceRepo.New(pool)
	folders := folderRepo.New(pool)
	links := linkRepo.New(pool)
	perms := permissionRepo.New(pool)
	files := fileRepo.New(pool)
	otp := otpRepo.New(redisClient)

	workspaceServ := workspaceService.New(users, workspaces, cfg.DefaultStorageLimitBytes)
	quotaServ := quotaService.New(workspaces)
	permServ := permissionService.New(links, perms, folders, workspaces, otp, cfg.PromotionTTL)
	linkServ := linkService.New(folders, links, workspaces)
	folderServ := folderService.New(folders, files, workspaces, minIO, permServ)
	fileServ := fileService.New(files, folders, workspaces, minIO, quotaServ, permServ, cfg.SignedURLTTL)

	workspaceH := workspaceHandler.New(workspaceServ, quotaServ)
	folderH := folderHandler.New(folderServ, fileServ)
	linkH := linkHandler.New(linkServ, permServ, fileServ)
	fileH := fileHandler.New(fileServ)

	router := newRouter(ctx, cfg.JWTSecret, workspaceH, folderH, linkH, fileH)

	srv := &http.Server{
		Addr:    fmt.Sprintf(":%s", cfg.HTTPPort),
		Handler: router,
	}
	go func() {
		logger.GetLogger(ctx).Info("server started", zap.String("port", cfg.HTTPPort))
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.GetLogger(ctx).Fatal("failed to serve", zap.Error(err))
		}
	}()

	<-ctx.Done()
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		logger.GetLogger(ctx).Error("shutdown failed", zap.Error(err))
	}
	logger.GetLogger(ctx).Info("server stopped")
}

func newRouter(ctx context.Context, jwtSecret string,
	workspaceH *workspaceHandler.WorkspaceHandler,
	folderH *folderHandler.FolderHandler,
	linkH *linkHandler.LinkHandler,
	fileH *fileHandler.FileHandler,
) *gin.Engine {
	r := gin.New()
	r.Use(gin.Recovery())
	// Each request context carries the process logger so handlers and
	// services can pick it up with logger.GetLogger. Only the logger is
	// injected; request cancellation stays per-request.
	log := logger.GetLogger(ctx)
	r.Use(func(c *gin.Context) {
		c.Request = c.Request.WithContext(logger.Inject(c.Request.Context(), log))
		c.Next()
	})

	corsCfg := cors.DefaultConfig()
	corsCfg.AllowAllOrigins = true
	corsCfg.AllowHeaders = []string{"Origin", "Content-Length", "Content-Type", "Authorization", "X-Uploader-Email"}
	r.Use(cors.New(corsCfg))

	api := r.Group("/api")

	// Anonymous uploaders reach these with a claimed email only.
	shared := api.Group("/")
	shared.Use(middleware.OptionalAuth(jwtSecret))
	{
		shared.POST("/links/:id/uploads", linkH.Upload)
		shared.POST("/links/:id/promotions/verify", linkH.VerifyPromotion)
		shared.POST("/folders", folderH.Create)
		shared.PATCH("/folders/:id/name", folderH.Rename)
		shared.PATCH("/folders/:id/parent", folderH.Move)
		shared.DELETE("/folders/:id", folderH.Delete)
		shared.GET("/folders", folderH.List)
		shared.GET("/folders/:id/subtree", folderH.Subtree)
		shared.GET("/folders/:id/files", folderH.Files)
		shared.PATCH("/files/:id/name", fileH.Rename)
		shared.PATCH("/files/:id/folder", fileH.Move)
		shared.DELETE("/files/:id", fileH.Delete)
		shared.GET("/files/:id/url", fileH.SignedURL)
	}

	authed := api.Group("/")
	authed.Use(middleware.Auth(jwtSecret))
	{
		authed.POST("/workspace", workspaceH.Provision)
		authed.GET("/workspace/usage", workspaceH.Usage)
		authed.POST("/workspace/recompute", workspaceH.Recompute)
		authed.GET("/folders/counts", folderH.Counts)
		authed.GET("/folders/:id/uploaders", folderH.Uploaders)
		authed.POST("/folders/:id/link", linkH.Generate)
		authed.DELETE("/folders/:id/link", linkH.Unlink)
		authed.PATCH("/links/:id/type", linkH.SwitchType)
		authed.GET("/links/:id/permissions", linkH.ListPermissions)
		authed.POST("/links/:id/permissions", linkH.AddPermission)
		authed.DELETE("/links/:id/permissions/:email", linkH.RemovePermission)
		authed.POST("/links/:id/promotions", linkH.InitiatePromotion)
		authed.GET("/files/by-email", fileH.ByEmail)
	}

	return r
}
