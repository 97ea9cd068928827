package main

import (
	"net/http"
	"os"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
	"github.com/unihive/unihive/auth"
	"github.com/unihive/unihive/filestore"
	"github.com/unihive/unihive/realtime"
	"github.com/unihive/unihive/server"
	"github.com/unihive/unihive/server/middlewares"
	"github.com/unihive/unihive/store"
	"github.com/unihive/unihive/utils"
	"github.com/unihive/unihive/utils/dotenv"
	. "github.com/unihive/unihive/utils/flag"
	. "github.com/unihive/unihive/utils/log"
)

func main() {
	if err := dotenv.LoadDotEnvs(); err != nil {
		panic(err)
	}

	db, err := utils.GetDBConnection()
	if err != nil {
		panic(err)
	}
	utils.DatabaseSetupAndMigration(db)

	broker := realtime.NewBroker()
	s := store.NewStore(db, broker)
	authService := auth.NewService(s)

	files, err := filestore.NewS3FileStore(os.Getenv("STORY_BUCKET"))
	if err != nil {
		panic(err)
	}

	readStatus, err := utils.GetRedisStatusStore()
	if err != nil {
		// Redis only caches read markers, the server runs without it.
		Log.Warn("redis unavailable, read marker mirroring disabled: ", err)
		readStatus = nil
	}

	middlewares.Setup(authService)
	Log.Info("api server initialized")

	// Default With the Logger and Recovery middleware already attached
	router := gin.Default()
	router.Use(cors.Default())

	handler := server.NewHandler(s, authService, files, readStatus)

	public := router.Group("/")
	authed := router.Group("/")
	if !*ByPassAuth {
		authed.Use(middlewares.JWT())
	}
	handler.RegisterRoutes(public, authed)

	authed.GET("/subscription", server.Subscription(broker))

	router.GET("/ping", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"message": "pong"})
	})

	Log.Info("api server starts up: ", *ServiceName)
	router.Run(":8080")
}
