package main

import (
	"context"
	"errors"
	"fmt"
	"math"
	"os"
	"sort"
	"strconv"
	"sync/atomic"
	"time"

	"github.com/google/uuid"

	"github.com/d60-Lab/postboard/config"
	"github.com/d60-Lab/postboard/internal/auth"
	"github.com/d60-Lab/postboard/internal/model"
	"github.com/d60-Lab/postboard/internal/repository"
	"github.com/d60-Lab/postboard/internal/service"
	"github.com/d60-Lab/postboard/pkg/database"
)

func must[T any](v T, err error) T {
	if err != nil {
		panic(err)
	}
	return v
}

func envInt(key string, def int) int {
	if s := os.Getenv(key); s != "" {
		if n, err := strconv.Atoi(s); err == nil && n > 0 {
			return n
		}
	}
	return def
}

// 并发点赞 / 评论压测：验证原子更新不丢写，并统计延迟分位
func main() {
	cfg := must(config.Load())
	db := must(database.InitDB(cfg))
	if err := database.Migrate(db); err != nil {
		panic(err)
	}
	ctx := context.Background()

	var posts repository.PostRepository
	if cfg.PostStore == config.PostStoreMongo {
		client := must(database.InitMongo(ctx, cfg.Mongo))
		defer client.Disconnect(context.Background())
		posts = repository.NewMongoPostRepository(client.Database(cfg.Mongo.Database).Collection(cfg.Mongo.Collection))
	} else {
		posts = repository.NewSQLPostRepository(db)
	}
	authSvc := service.NewAuthService(repository.NewUserRepository(db), nil,
		auth.NewTokenManager(cfg.JWT.Secret, cfg.JWT.Expire, cfg.JWT.Issuer), 0)
	postSvc := service.NewPostService(posts, authSvc)

	N := envInt("N", 1000)
	CONC := envInt("CONC", 8)

	// seed: u0 is the author, the others like and comment
	run := uuid.New().String()[:8]
	users := make([]model.User, N+1)
	for i := range users {
		id := uuid.New().String()
		users[i] = model.User{ID: id, Name: "u" + id[:8], Email: fmt.Sprintf("%s-%d@bench.local", run, i), Password: "x", Date: time.Now()}
	}
	for start := 0; start < len(users); start += 500 {
		end := min(start+500, len(users))
		sub := users[start:end]
		if err := db.Create(&sub).Error; err != nil {
			panic(err)
		}
	}
	post := must(postSvc.CreatePost(ctx, auth.Principal{UserID: users[0].ID}, "bench "+run))

	likeLat, likeFail := fanOut(N, CONC, func(i int) error {
		_, err := postSvc.ToggleLike(ctx, auth.Principal{UserID: users[i+1].ID}, post.ID)
		return err
	})
	commentLat, commentFail := fanOut(N, CONC, func(i int) error {
		_, err := postSvc.AddComment(ctx, auth.Principal{UserID: users[i+1].ID}, post.ID, "c"+strconv.Itoa(i))
		return err
	})

	final := must(postSvc.GetPost(ctx, post.ID))

	fmt.Printf("store=%s N=%d CONC=%d\n", cfg.PostStore, N, CONC)
	report("like", likeLat, likeFail)
	report("comment", commentLat, commentFail)
	fmt.Printf("likes=%d (want %d), comments=%d (want %d)\n",
		len(final.Likes), N-int(likeFail), len(final.Comments), N-int(commentFail))

	_ = postSvc.DeletePost(ctx, auth.Principal{UserID: users[0].ID}, post.ID)
}

// fanOut runs op(0..n-1) on conc workers and returns per-op latencies and the failure count.
func fanOut(n, conc int, op func(i int) error) ([]time.Duration, int64) {
	if conc > n {
		conc = n
	}
	feed := make(chan int, n)
	for i := 0; i < n; i++ {
		feed <- i
	}
	close(feed)

	lat := make(chan time.Duration, n)
	var failed atomic.Int64
	done := make(chan struct{}, conc)
	for w := 0; w < conc; w++ {
		go func() {
			for i := range feed {
				st := time.Now()
				if err := op(i); err != nil {
					var serr *service.StoreError
					if !errors.As(err, &serr) {
						fmt.Fprintf(os.Stderr, "op %d: %v\n", i, err)
					}
					failed.Add(1)
				}
				lat <- time.Since(st)
			}
			done <- struct{}{}
		}()
	}
	for w := 0; w < conc; w++ {
		<-done
	}
	close(lat)

	out := make([]time.Duration, 0, n)
	for d := range lat {
		out = append(out, d)
	}
	return out, failed.Load()
}

func pct(vs []time.Duration, p float64) time.Duration {
	if len(vs) == 0 {
		return 0
	}
	xs := append([]time.Duration(nil), vs...)
	sort.Slice(xs, func(i, j int) bool { return xs[i] < xs[j] })
	k := int(math.Ceil(p*float64(len(xs)))) - 1
	k = max(0, min(k, len(xs)-1))
	return xs[k]
}

func report(name string, lat []time.Duration, failed int64) {
	fmt.Printf("%-8s ops=%d failed=%d p50=%v p95=%v p99=%v\n",
		name, len(lat), failed, pct(lat, 0.50), pct(lat, 0.95), pct(lat, 0.99))
}
