package dotenv

import (
	"os"
	"path/filepath"

	"github.com/joho/godotenv"
)

// ProdEnv is the value of UNIHIVE_ENV used by production deployments.
const ProdEnv = "prod"

// Load loads the .env file following the convention: https://github.com/bkeepers/dotenv#what-other-env-files-can-i-use
// It only need to be called once in main function, other code can use env through os.Getenv('ENV_NAME') during runtime
func LoadDotEnvs() error {
	// check whether running in development, testing, production etc.
	loadDotEnvs("")
	return nil
}

func loadDotEnvs(rootPath string) {
	env := os.Getenv("UNIHIVE_ENV")
	if env == "" {
		env = "dev"
	}

	// .env.[runtime_env].local has highest priority, usually contains username and password and other sensitive information
	godotenv.Load(rootPath + ".env." + env + ".local")
	godotenv.Load(rootPath + ".env.local")
	// .env.[runtime_env] usually contains db connection information
	godotenv.Load(rootPath + ".env." + env)
	// .env usually contains shared variables(which might be overwritten by envs above)
	godotenv.Load(rootPath + ".env")
}

// LoadDotEnvsInTests loads .env.test from the module root. Tests run with
// the package directory as cwd, so walk up until go.mod to find the root
// regardless of where the repo is checked out. Needed because godotenv only
// looks in cwd: https://github.com/joho/godotenv/issues/43
func LoadDotEnvsInTests() error {
	root, err := findModuleRoot()
	if err != nil {
		return err
	}
	godotenv.Load(filepath.Join(root, ".env.test"))
	return nil
}

func findModuleRoot() (string, error) {
	dir, err := os.Getwd()
	if err != nil {
		return "", err
	}
	for {
		if _, err := os.Stat(filepath.Join(dir, "go.mod")); err == nil {
			return dir, nil
		}
		parent := filepath.Dir(dir)
		if parent == dir {
			// No go.mod above cwd, fall back to cwd itself.
			return ".", nil
		}
		dir = parent
	}
}
