// @title           Huddle API
// @version         1.0
// @description     Team chat with retrieval-augmented answers over channel history and uploaded documents.
// @termsOfService  http://swagger.io/terms/

// @contact.name    API Support

// @license.name    Apache 2.0
// @license.url     http://www.apache.org/licenses/LICENSE-2.0.html

// @host      localhost:3000
// @BasePath  /
// @schemes   http https
package utils

//run redis
//docker run -p 6379:6379 -d redis

//run qdrant
//docker run -p 6333:6333 -p 6334:6334 -v vectorDBData:/qdrant/storage qdrant/qdrant

//swagger init
//swag init -g internal/adapter/utils/docs_info.go --parseDependency --parseInternal --dir ./ --output ./cmd/api/docs
