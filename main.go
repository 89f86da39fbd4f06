package main

import (
	"flag"
	"log"
	"os"

	"github.com/hajimehoshi/ebiten/v2"

	"github.com/decker502/nebula/pkg/app"
	"github.com/decker502/nebula/pkg/config"
)

var (
	configFlag  = flag.String("config", "", "动画参数 YAML 文件（为空使用默认参数）")
	verboseFlag = flag.Bool("verbose", false, "详细日志")
	seedFlag    = flag.Int64("seed", 0, "随机种子（0 使用当前时间）")
	appNameFlag = flag.String("app-name", "nebula", "存储目录使用的应用名")
)

// closableGame 运行结束后需要释放资源的游戏
type closableGame interface {
	ebiten.Game
	Close()
}

func main() {
	flag.Parse()

	gameApp, err := app.NewApp(app.Config{
		Verbose:    *verboseFlag,
		ParamsPath: *configFlag,
		AppName:    *appNameFlag,
		Seed:       *seedFlag,
	})
	if err != nil {
		log.SetOutput(os.Stderr)
		log.Fatalf("初始化失败: %v", err)
	}

	ebiten.SetWindowSize(config.GameWindowWidth, config.GameWindowHeight)
	ebiten.SetWindowTitle(config.WindowTitle)
	ebiten.SetWindowResizingMode(ebiten.WindowResizingModeEnabled)

	if err := run(gameApp, ebiten.RunGame); err != nil {
		log.Fatal(err)
	}
}

// run 运行游戏循环，无论成功与否都在返回前关闭游戏
func run(g closableGame, runGame func(ebiten.Game) error) error {
	defer g.Close()
	return runGame(g)
}
