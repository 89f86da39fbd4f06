//go:build mobile

// Package mobile 提供 ebitenmobile 绑定入口
//
// 此文件仅在使用 -tags mobile 构建时编译：
//
//	ebitenmobile bind -target android -tags mobile -javapkg com.decker.nebula -o build/android/nebula.aar ./mobile
//	ebitenmobile bind -target ios -tags mobile -o build/ios/Nebula.xcframework ./mobile
package mobile

import (
	"log"

	"github.com/hajimehoshi/ebiten/v2/mobile"

	"github.com/decker502/nebula/pkg/app"
)

func init() {
	gameApp, err := app.NewApp(app.Config{AppName: "nebula"})
	if err != nil {
		log.Fatalf("初始化失败: %v", err)
	}
	mobile.SetGame(gameApp)
}

// Dummy 是一个空导出函数，确保包被 ebitenmobile 正确识别
func Dummy() {}
