package router

import (
	"github.com/hmdp-next/internal/config"
	publichandlers "github.com/hmdp-next/internal/http/handlers/public"
	"github.com/hmdp-next/internal/logger"
	"github.com/hmdp-next/internal/provider"

	"github.com/gin-gonic/gin"
)

// SetupRouter 初始化路由
func SetupRouter(cfg *config.Config, c *provider.Container) *gin.Engine {
	log := logger.L
	if log == nil {
		log = logger.Init(cfg.Server.Mode, cfg.Log.ToLoggerOptions())
	}
	r := gin.New()

	h := publichandlers.New(c)
	seckillRule := RateLimitRule{
		Prefix:        "rate:seckill",
		WindowSeconds: cfg.Security.SeckillRateLimit.WindowSeconds,
		MaxRequests:   cfg.Security.SeckillRateLimit.MaxRequests,
		MessageKey:    "error.rate_limited",
	}

	// 中间件
	r.Use(gin.Recovery())
	r.Use(RequestIDMiddleware())
	r.Use(LoggerMiddleware(log))
	r.Use(CORSMiddleware(cfg.CORS))
	r.Use(LoginTokenMiddleware(c.LoginUsers))

	apiV1 := r.Group("/api/v1")
	{
		// 商铺（经缓存读取）
		shop := apiV1.Group("/shop")
		{
			shop.GET("/of/type", h.ListShopsByType)
			shop.GET("/:id", h.GetShop)
			shop.PUT("", h.UpdateShop)
		}

		// 优惠券
		apiV1.POST("/voucher/seckill", h.AddSeckillVoucher)

		// 秒杀下单（需登录）
		order := apiV1.Group("/voucher-order")
		order.Use(RequireLoginMiddleware())
		{
			order.POST("/seckill/:id", RateLimitMiddleware(c.Redis, seckillRule, KeyByUser), h.SeckillVoucher)
			order.GET("/:id", h.GetVoucherOrder)
		}
	}

	// 健康检查
	r.GET("/health", func(c *gin.Context) {
		c.JSON(200, gin.H{"status": "ok"})
	})

	return r
}
