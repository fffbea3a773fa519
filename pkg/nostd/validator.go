package nostd

import (
	"errors"
	"fmt"
	"strings"

	"github.com/go-playground/locales/zh"
	ut "github.com/go-playground/universal-translator"
	"github.com/go-playground/validator/v10"
	zhtranslations "github.com/go-playground/validator/v10/translations/zh"
)

// CustomValidator echo 请求参数校验器，错误信息输出中文
type CustomValidator struct {
	Validator *validator.Validate
	trans     ut.Translator
}

// TransInit 初始化中文翻译器
func (cv *CustomValidator) TransInit() error {
	zhLocale := zh.New()
	uni := ut.New(zhLocale, zhLocale)
	trans, ok := uni.GetTranslator("zh")
	if !ok {
		return errors.New("zh translator not found")
	}
	if err := zhtranslations.RegisterDefaultTranslations(cv.Validator, trans); err != nil {
		return err
	}
	cv.trans = trans
	return nil
}

func (cv *CustomValidator) Validate(i interface{}) error {
	err := cv.Validator.Struct(i)
	if err == nil {
		return nil
	}
	var invalid *validator.InvalidValidationError
	if errors.As(err, &invalid) {
		return err
	}
	var verrs validator.ValidationErrors
	if errors.As(err, &verrs) && cv.trans != nil {
		messages := make([]string, 0, len(verrs))
		for _, ve := range verrs {
			messages = append(messages, ve.Translate(cv.trans))
		}
		return fmt.Errorf("%s", strings.Join(messages, "; "))
	}
	return err
}
