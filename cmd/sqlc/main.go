// Команда генерирует sqlc-код для каждого queries-файла из .sqlc.base.yaml:
// пакет берётся по имени каталога с файлом, код кладётся рядом.
package main

import (
	"flag"
	"fmt"
	"os"
	"os/exec"
	"path/filepath"
	"strings"

	"github.com/pkg/errors"
	"github.com/spf13/viper"
	"gopkg.in/yaml.v2"
)

const defaultConfigName = "sqlc.yaml"

func generateConfig(engine *viper.Viper, version, file string) (string, error) {
	var (
		dir, _      = filepath.Split(file)
		parts       = strings.Split(filepath.Clean(dir), string(os.PathSeparator))
		packageName = parts[len(parts)-1]
	)
	engine.Set("gen.go.package", packageName)
	engine.Set("queries", file)

	engine.Set("gen.go.out", dir)
	engineSettings := engine.AllSettings()
	delete(engineSettings, "source")

	resultConfig := viper.New()
	resultConfig.Set("version", version)
	resultConfig.Set("sql", []interface{}{engineSettings})

	bs, err := yaml.Marshal(resultConfig.AllSettings())
	if err != nil {
		return "", errors.Wrap(err, "marshal config to yaml")
	}
	_ = os.Remove(defaultConfigName)
	temp, err := os.Create(defaultConfigName)
	if err != nil {
		return "", errors.Wrap(err, "create sqlc.yaml file")
	}
	defer temp.Close()
	if _, err = temp.Write(bs); err != nil {
		_ = os.Remove(temp.Name())
		return "", errors.Wrap(err, "write content")
	}
	return temp.Name(), nil
}

func callSqlc(config string) error {
	cmd := exec.Command("sqlc", "generate", "--file", config)
	output, err := cmd.CombinedOutput()
	if err != nil {
		return errors.Wrap(err, fmt.Sprintf("call sqlc: %s", string(output)))
	}
	return nil
}

// sourceFiles раскрывает glob-шаблоны sql.0.source.
func sourceFiles(patterns []string) ([]string, error) {
	files := make([]string, 0, len(patterns))
	for _, pattern := range patterns {
		f, err := filepath.Glob(pattern)
		if err != nil {
			return nil, errors.Wrap(err, "get file glob")
		}
		files = append(files, f...)
	}
	return files, nil
}

func run(baseName string) error {
	v := viper.New()
	v.SetConfigName(baseName)
	v.SetConfigType("yaml")
	v.AddConfigPath(".")
	if err := v.ReadInConfig(); err != nil {
		return errors.Wrap(err, "read base config")
	}

	files, err := sourceFiles(v.GetStringSlice("sql.0.source"))
	if err != nil {
		return err
	}
	if len(files) == 0 {
		return errors.New("has no sql.0.source files in config")
	}

	engine := v.Sub("sql.0")
	if engine == nil {
		return errors.New("has no sql.0 section in config")
	}
	engine.Set("schema", v.GetString("sql.0.schema"))

	defer func() { _ = os.Remove(defaultConfigName) }()
	for _, file := range files {
		configFile, err := generateConfig(engine, v.GetString("version"), file)
		if err != nil {
			return errors.Wrap(err, "can't generate result config")
		}
		if err := callSqlc(configFile); err != nil {
			return err
		}
		fmt.Printf("%s file complete\n", file)
	}
	return nil
}

func main() {
	baseName := flag.String("config", ".sqlc.base", "base sqlc config name without extension")
	flag.Parse()

	if err := run(*baseName); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
	fmt.Println("done")
}
