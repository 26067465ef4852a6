package proxy

import (
	"context"
	"errors"
	"fmt"
	"net"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
)

// shutdownTimeout 收到退出信号后等待进行中请求的时间
const shutdownTimeout = 15 * time.Second

// Server 返回配置好超时的 http.Server
func (p *Proxy) Server() *http.Server {
	return &http.Server{
		Addr:              p.config.Server.Listen,
		Handler:           p.Engine(),
		ReadHeaderTimeout: p.config.ReadTimeout(),
		ReadTimeout:       p.config.ReadTimeout(),
		WriteTimeout:      p.config.WriteTimeout(),
		IdleTimeout:       p.config.IdleTimeout(),
	}
}

// Start 启动代理服务，ctx 结束后优雅退出
func (p *Proxy) Start(ctx context.Context) error {
	ln, err := net.Listen("tcp", p.config.Server.Listen)
	if err != nil {
		return fmt.Errorf("listen %s: %w", p.config.Server.Listen, err)
	}
	return p.Serve(ctx, ln)
}

// Serve 在已有 listener 上提供服务
func (p *Proxy) Serve(ctx context.Context, ln net.Listener) error {
	gin.SetMode(gin.ReleaseMode)
	srv := p.Server()

	errCh := make(chan error, 1)
	go func() {
		p.logger.Info("Starting gemini proxy on", ln.Addr().String(),
			"path="+p.config.Server.Path, "variant="+string(p.client.Settings().Variant))
		errCh <- srv.Serve(ln)
	}()

	select {
	case err := <-errCh:
		if errors.Is(err, http.ErrServerClosed) {
			return nil
		}
		return err
	case <-ctx.Done():
	}

	p.logger.Info("Shutting down gemini proxy")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("shutdown: %w", err)
	}
	if err := <-errCh; err != nil && !errors.Is(err, http.ErrServerClosed) {
		return err
	}
	return nil
}
